package analysis_test

import (
	"testing"

	"github.com/alejandrodnm/digitbot/internal/analysis"
	"github.com/alejandrodnm/digitbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSignals_ShortWindowIsEmpty(t *testing.T) {
	s := analysis.ComputeSignals(digits(1, 2, 3), 20)

	assert.Empty(t, s.Hot)
	assert.Empty(t, s.Cold)
	assert.Empty(t, s.Due)
	assert.Empty(t, s.TrendingUp)
	assert.Empty(t, s.TrendingDown)
}

func TestComputeSignals_HotAndCold(t *testing.T) {
	w := digits(0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 3, 3, 3, 3)
	s := analysis.ComputeSignals(w, 4)

	require.Len(t, s.Hot, 1)
	assert.Equal(t, domain.Digit(3), s.Hot[0].Digit)
	assert.InDelta(t, 5.0, s.Hot[0].Score, 1e-9)

	require.Len(t, s.Cold, 1)
	assert.Equal(t, domain.Digit(0), s.Cold[0].Digit)
	assert.InDelta(t, 8.0, s.Cold[0].Score, 1e-9)
}

func TestComputeSignals_DueNeverSeenScoresHighest(t *testing.T) {
	w := digits(0, 1, 2, 3, 4, 5, 6, 8, 9, 0, 1, 2, 3, 4, 5, 6, 8, 9, 0, 1)
	s := analysis.ComputeSignals(w, 20)

	require.Len(t, s.Due, 3)
	assert.Equal(t, domain.Digit(7), s.Due[0].Digit)
	assert.Equal(t, 20, s.Due[0].AbsentCount)
	assert.InDelta(t, 10.0, s.Due[0].Score, 1e-9)
	assert.Equal(t, domain.Digit(2), s.Due[1].Digit)
	assert.InDelta(t, 4.0, s.Due[1].Score, 1e-9)
	assert.Equal(t, domain.Digit(3), s.Due[2].Digit)
}

func TestComputeSignals_TopThreeCap(t *testing.T) {
	w := make([]domain.Digit, 20)
	s := analysis.ComputeSignals(w, 20)

	require.Len(t, s.Due, 3)
	assert.Equal(t, domain.Digit(1), s.Due[0].Digit)
	assert.Equal(t, domain.Digit(2), s.Due[1].Digit)
	assert.Equal(t, domain.Digit(3), s.Due[2].Digit)
}

func TestComputeSignals_Trending(t *testing.T) {
	s := analysis.ComputeSignals(digits(1, 1, 1, 1, 2, 2, 2, 2), 8)

	require.Len(t, s.TrendingUp, 1)
	assert.Equal(t, domain.Digit(2), s.TrendingUp[0].Digit)
	assert.InDelta(t, 10.0, s.TrendingUp[0].Score, 1e-9)
	require.Len(t, s.TrendingDown, 1)
	assert.Equal(t, domain.Digit(1), s.TrendingDown[0].Digit)
}
