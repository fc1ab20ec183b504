package strategy_test

import (
	"testing"

	"github.com/alejandrodnm/digitbot/internal/domain"
	"github.com/alejandrodnm/digitbot/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ds(vs ...int) []domain.Digit {
	out := make([]domain.Digit, len(vs))
	for i, v := range vs {
		out[i] = domain.Digit(v)
	}
	return out
}

func TestComputeProbabilities(t *testing.T) {
	p := strategy.ComputeProbabilities(ds(1, 1, 2, 3))

	assert.Equal(t, domain.Digit(1), p.MatchDigit)
	assert.InDelta(t, 0.5, p.Matches, 1e-9)
	assert.Equal(t, domain.Digit(3), p.DifferDigit)
	assert.InDelta(t, 0.75, p.Differs, 1e-9)
	assert.InDelta(t, 0.0, p.Over, 1e-9)
	assert.InDelta(t, 1.0, p.Under, 1e-9)
	assert.InDelta(t, 0.25, p.Even, 1e-9)
	assert.InDelta(t, 0.75, p.Odd, 1e-9)
}

func TestComputeProbabilities_Empty(t *testing.T) {
	p := strategy.ComputeProbabilities(nil)

	assert.Equal(t, strategy.DefaultDigit, p.MatchDigit)
	assert.Zero(t, p.Matches)
	assert.Zero(t, p.Differs)
}

func TestPropose_TiesGoUnderAndOdd(t *testing.T) {
	p := domain.Probabilities{Over: 0.5, Under: 0.5, Even: 0.5, Odd: 0.5}

	c, prob, err := strategy.Propose(p, domain.FamilyOverUnder)
	require.NoError(t, err)
	assert.Equal(t, domain.UnderContract(), c)
	assert.InDelta(t, 0.5, prob, 1e-9)

	c, _, err = strategy.Propose(p, domain.FamilyEvenOdd)
	require.NoError(t, err)
	assert.Equal(t, domain.OddContract(), c)
}

func TestPropose_OverBarrier(t *testing.T) {
	c, prob, err := strategy.Propose(domain.Probabilities{Over: 0.7, Under: 0.3}, domain.FamilyOverUnder)

	require.NoError(t, err)
	assert.Equal(t, domain.KindOver, c.Kind)
	assert.Equal(t, domain.Digit(4), c.Barrier)
	assert.InDelta(t, 0.7, prob, 1e-9)
}

func TestPropose_UnknownFamily(t *testing.T) {
	_, _, err := strategy.Propose(domain.Probabilities{}, "roulette")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestBlend(t *testing.T) {
	assert.InDelta(t, 0.52, strategy.Blend(0.6, 0.4, nil), 1e-9)

	pos := 1.0
	assert.InDelta(t, 0.62, strategy.Blend(0.6, 0.4, &pos), 1e-9)

	out := 5.0
	assert.InDelta(t, 0.62, strategy.Blend(0.6, 0.4, &out), 1e-9)

	neg := -1.0
	assert.InDelta(t, 0.42, strategy.Blend(0.6, 0.4, &neg), 1e-9)
}

func TestEngine_DecideWithThreshold(t *testing.T) {
	e := strategy.NewEngine(nil)
	window := cycle(20)

	d, err := e.DecideWithThreshold(window, domain.FamilyEvenOdd, 0.5, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.OddContract(), d.Trade.Contract)
	assert.InDelta(t, 0.5, d.Trade.Confidence, 1e-9)
	assert.InDelta(t, 10, d.Trade.Stake, 1e-9)
	assert.True(t, d.Actionable())

	d, err = e.DecideWithThreshold(window, domain.FamilyEvenOdd, 0.51, 10)
	require.NoError(t, err)
	assert.False(t, d.Actionable())
}

func TestEngine_MatchTargetFollowsPredictor(t *testing.T) {
	window := ds(7, 7, 7, 1, 2, 2)

	ev, err := strategy.NewEngine(strategy.ModePredictor{}).Evaluate(window, domain.FamilyMatches)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchContract(7), ev.Contract)
	assert.InDelta(t, 0.5, ev.Probability, 1e-9)

	// the last three digits are not a repeat or a sequence, the window is
	// shorter than the signal window, so the pattern predictor falls back to 5
	ev, err = strategy.NewEngine(strategy.PatternPredictor{}).Evaluate(window, domain.FamilyMatches)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchContract(5), ev.Contract)
	assert.Zero(t, ev.Probability)
}

func TestEngine_Decide_AdaptiveThreshold(t *testing.T) {
	e := strategy.NewEngine(nil)

	d, err := e.Decide(repeat(3, 20), domain.FamilyMatches, 0.7, 10)
	require.NoError(t, err)
	assert.InDelta(t, 0.52, d.Threshold, 1e-9)
	assert.InDelta(t, 1.0, d.Trade.Confidence, 1e-9)
	assert.True(t, d.Actionable())
}

func TestEngine_DecideBlended(t *testing.T) {
	e := strategy.NewEngine(nil)
	window := ds(1, 1, 2, 3)

	d, ev, err := e.DecideBlended(window, window, domain.FamilyDiffers, 0.5, 10, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, ev.ModelConfidence, 1e-9)
	// 0.5*0.75 + 0.3*0.5 + 0.2*0.5
	assert.InDelta(t, 0.625, d.Trade.Confidence, 1e-9)
	assert.InDelta(t, 0.6, d.Threshold, 1e-9)
	assert.Equal(t, domain.DifferContract(3), d.Trade.Contract)
}

func TestEngine_DecideBlendedThresholdReadsHistory(t *testing.T) {
	e := strategy.NewEngine(nil)
	history := repeat(7, 20)
	window := history[len(history)-10:]

	d, _, err := e.DecideBlended(window, history, domain.FamilyMatches, 0.5, 10, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.57, d.Threshold, 1e-9)

	short, _, err := e.DecideBlended(window, window, domain.FamilyMatches, 0.5, 10, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, short.Threshold, 1e-9)
}
