package strategy_test

import (
	"math/rand/v2"
	"testing"

	"github.com/alejandrodnm/digitbot/internal/domain"
	"github.com/alejandrodnm/digitbot/internal/strategy"
	"github.com/stretchr/testify/assert"
)

func repeat(d domain.Digit, n int) []domain.Digit {
	out := make([]domain.Digit, n)
	for i := range out {
		out[i] = d
	}
	return out
}

func cycle(n int) []domain.Digit {
	out := make([]domain.Digit, n)
	for i := range out {
		out[i] = domain.Digit((i + 1) % 10)
	}
	return out
}

func TestMinConfidence(t *testing.T) {
	var a strategy.ThresholdAdapter
	tests := []struct {
		name    string
		winRate float64
		recent  []domain.Digit
		want    float64
	}{
		{"neutral short history", 0.5, repeat(1, 5), 0.6},
		{"good win rate stable market", 0.7, repeat(1, 20), 0.52},
		{"poor win rate noisy market", 0.3, cycle(20), 0.68},
		{"volatility needs twenty digits", 0.3, cycle(19), 0.65},
		{"only last twenty counted", 0.5, append(cycle(30), repeat(4, 20)...), 0.57},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, a.MinConfidence(tt.winRate, tt.recent), 1e-9)
		})
	}
}

func TestMinConfidence_AlwaysInBounds(t *testing.T) {
	var a strategy.ThresholdAdapter
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 1000; i++ {
		n := rng.IntN(60)
		recent := make([]domain.Digit, n)
		alphabet := 1 + rng.IntN(10)
		for j := range recent {
			recent[j] = domain.Digit(rng.IntN(alphabet))
		}
		got := a.MinConfidence(rng.Float64()*1.4-0.2, recent)
		assert.GreaterOrEqual(t, got, strategy.MinThreshold)
		assert.LessOrEqual(t, got, strategy.MaxThreshold)
	}
}
