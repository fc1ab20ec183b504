package strategy

import (
	"sort"

	"github.com/alejandrodnm/digitbot/internal/analysis"
	"github.com/alejandrodnm/digitbot/internal/domain"
)

// DefaultDigit is predicted when a strategy has nothing to go on.
const DefaultDigit domain.Digit = 5

// ModePredictor returns the most frequent digit of the window, ties going to
// the digit seen first. It is a placeholder for a real model.
type ModePredictor struct{}

func (ModePredictor) Name() string { return ModeName }

func (ModePredictor) Predict(window []domain.Digit) domain.Digit {
	if len(window) == 0 {
		return DefaultDigit
	}
	return analysis.RankedCounts(window)[0].Digit
}

// PatternPredictor applies short-range heuristics: a triple repeat predicts
// the same digit, a three-term arithmetic run predicts its next term, and
// otherwise the best scored hot, due or trending-up digit wins.
type PatternPredictor struct {
	RecentWindow int
}

// Prediction is a predicted digit with the heuristic's own confidence.
type Prediction struct {
	Digit      domain.Digit `json:"digit"`
	Confidence float64      `json:"confidence"`
	Reason     string       `json:"reason"`
}

func (PatternPredictor) Name() string { return PatternName }

func (p PatternPredictor) Predict(window []domain.Digit) domain.Digit {
	return p.Explain(window).Digit
}

// Explain returns the prediction with its confidence (0.3 to 0.8) and the
// rule that produced it.
func (p PatternPredictor) Explain(window []domain.Digit) Prediction {
	n := len(window)
	if n < 3 {
		return Prediction{Digit: DefaultDigit, Confidence: 0.3, Reason: "short_window"}
	}
	a, b, c := int(window[n-3]), int(window[n-2]), int(window[n-1])
	if a == b && b == c {
		return Prediction{Digit: window[n-1], Confidence: 0.7, Reason: "repeat"}
	}
	if b-a == c-b {
		next := ((c+(c-b))%10 + 10) % 10
		return Prediction{Digit: domain.Digit(next), Confidence: 0.6, Reason: "sequence"}
	}

	recent := p.RecentWindow
	if recent <= 0 {
		recent = analysis.DefaultRecentWindow
	}
	sig := analysis.ComputeSignals(window, recent)

	type candidate struct {
		digit domain.Digit
		score float64
	}
	var cands []candidate
	for _, s := range sig.Hot {
		cands = append(cands, candidate{s.Digit, s.Score * 1.2})
	}
	for _, s := range sig.Due {
		cands = append(cands, candidate{s.Digit, s.Score})
	}
	for _, s := range sig.TrendingUp {
		cands = append(cands, candidate{s.Digit, s.Score * 1.1})
	}
	if len(cands) == 0 {
		return Prediction{Digit: DefaultDigit, Confidence: 0.3, Reason: "default"}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	best := cands[0]
	return Prediction{
		Digit:      best.digit,
		Confidence: 0.3 + min(0.5, best.score/10),
		Reason:     "signals",
	}
}

// ModelConfidence is the predicted digit's share of the window. An empty
// window is neutral.
func ModelConfidence(p Predictor, window []domain.Digit) (domain.Digit, float64) {
	d := p.Predict(window)
	if len(window) == 0 {
		return d, 0.5
	}
	return d, float64(analysis.Counts(window)[d]) / float64(len(window))
}

