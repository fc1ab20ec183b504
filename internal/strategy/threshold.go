package strategy

import "github.com/alejandrodnm/digitbot/internal/domain"

// Bounds and adjustments of the adaptive confidence threshold.
const (
	BaseThreshold = 0.6
	MinThreshold  = 0.5
	MaxThreshold  = 0.75

	winRateStep     = 0.05
	volatilityStep  = 0.03
	volatilityTicks = 20
	stableDistinct  = 3
	noisyDistinct   = 8
)

// ThresholdAdapter computes the minimum confidence needed to trade.
type ThresholdAdapter struct{}

// Threshold is the computed gate with its components, for logging.
type Threshold struct {
	Value      float64 `json:"value"`
	WinRateAdj float64 `json:"win_rate_adjustment"`
	VolAdj     float64 `json:"volatility_adjustment"`
}

// MinConfidence returns the clamped threshold in [0.5, 0.75].
func (a ThresholdAdapter) MinConfidence(winRate float64, recent []domain.Digit) float64 {
	return a.Explain(winRate, recent).Value
}

// Explain returns the threshold together with its adjustments. A good win
// rate or a stable market lowers it; a poor win rate or a noisy market raises
// it. The volatility term needs 20 digits of history.
func (ThresholdAdapter) Explain(winRate float64, recent []domain.Digit) Threshold {
	var t Threshold
	switch {
	case winRate > highWinRate:
		t.WinRateAdj = -winRateStep
	case winRate < lowWinRate:
		t.WinRateAdj = winRateStep
	}

	if len(recent) >= volatilityTicks {
		distinct := distinctDigits(recent[len(recent)-volatilityTicks:])
		switch {
		case distinct <= stableDistinct:
			t.VolAdj = -volatilityStep
		case distinct >= noisyDistinct:
			t.VolAdj = volatilityStep
		}
	}

	t.Value = min(MaxThreshold, max(MinThreshold, BaseThreshold+t.WinRateAdj+t.VolAdj))
	return t
}

func distinctDigits(ds []domain.Digit) int {
	var seen [domain.NumDigits]bool
	n := 0
	for _, d := range ds {
		if !seen[d] {
			seen[d] = true
			n++
		}
	}
	return n
}
