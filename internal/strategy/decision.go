package strategy

import (
	"fmt"

	"github.com/alejandrodnm/digitbot/internal/analysis"
	"github.com/alejandrodnm/digitbot/internal/domain"
)

// Weights of the live confidence blend.
const (
	ProbabilityWeight = 0.5
	ModelWeight       = 0.3
	SentimentWeight   = 0.2
)

// ComputeProbabilities derives every family's probability from the digit
// frequencies of the window. An empty window yields zero probabilities.
func ComputeProbabilities(window []domain.Digit) domain.Probabilities {
	p := domain.Probabilities{MatchDigit: DefaultDigit}
	n := len(window)
	if n == 0 {
		return p
	}
	total := float64(n)
	counts := analysis.Counts(window)
	ranked := analysis.RankedCounts(window)

	p.MatchDigit = ranked[0].Digit
	p.Matches = float64(ranked[0].Count) / total
	least := ranked[len(ranked)-1]
	p.DifferDigit = least.Digit
	p.Differs = 1 - float64(least.Count)/total

	var over, even int
	for d := domain.Digit(0); d < domain.NumDigits; d++ {
		if d.IsHigh() {
			over += counts[d]
		}
		if d.IsEven() {
			even += counts[d]
		}
	}
	p.Over = float64(over) / total
	p.Under = float64(n-over) / total
	p.Even = float64(even) / total
	p.Odd = float64(n-even) / total
	return p
}

// Propose picks the contract of a family and the probability backing it.
// Over/under and even/odd take the larger share; ties go to under and odd.
func Propose(p domain.Probabilities, family domain.ContractFamily) (domain.Contract, float64, error) {
	switch family {
	case domain.FamilyMatches:
		return domain.MatchContract(p.MatchDigit), p.Matches, nil
	case domain.FamilyDiffers:
		return domain.DifferContract(p.DifferDigit), p.Differs, nil
	case domain.FamilyOverUnder:
		if p.Over > p.Under {
			return domain.OverContract(), p.Over, nil
		}
		return domain.UnderContract(), p.Under, nil
	case domain.FamilyEvenOdd:
		if p.Even > p.Odd {
			return domain.EvenContract(), p.Even, nil
		}
		return domain.OddContract(), p.Odd, nil
	}
	return domain.Contract{}, 0, fmt.Errorf("strategy.Propose: unknown family %q: %w", family, domain.ErrConfiguration)
}

// Blend mixes the family probability with the model confidence and an
// exogenous sentiment in [-1, 1]. A nil sentiment counts as neutral.
func Blend(probability, model float64, sentiment *float64) float64 {
	s := 0.5
	if sentiment != nil {
		s = (min(1, max(-1, *sentiment)) + 1) / 2
	}
	return ProbabilityWeight*probability + ModelWeight*model + SentimentWeight*s
}

// Evaluation is everything the engine derives from one window before gating.
type Evaluation struct {
	Probabilities   domain.Probabilities `json:"probabilities"`
	Contract        domain.Contract      `json:"contract"`
	Probability     float64              `json:"probability"`
	Prediction      domain.Digit         `json:"prediction"`
	ModelConfidence float64              `json:"model_confidence"`
}

// Engine combines frequency statistics, a predictor and the threshold
// adapter. It holds no mutable state and is safe to share.
type Engine struct {
	predictor Predictor
	threshold ThresholdAdapter
}

// NewEngine builds an engine; a nil predictor selects the mode predictor.
func NewEngine(p Predictor) *Engine {
	if p == nil {
		p = ModePredictor{}
	}
	return &Engine{predictor: p}
}

// Predictor returns the engine's prediction strategy.
func (e *Engine) Predictor() Predictor { return e.predictor }

// Evaluate computes probabilities and the proposed contract. For matches the
// target is the predictor's digit and its probability is that digit's share
// of the window.
func (e *Engine) Evaluate(window []domain.Digit, family domain.ContractFamily) (Evaluation, error) {
	probs := ComputeProbabilities(window)
	pred, model := ModelConfidence(e.predictor, window)

	if family == domain.FamilyMatches && len(window) > 0 {
		probs.MatchDigit = pred
		probs.Matches = model
	}
	contract, prob, err := Propose(probs, family)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{
		Probabilities:   probs,
		Contract:        contract,
		Probability:     prob,
		Prediction:      pred,
		ModelConfidence: model,
	}, nil
}

// Threshold returns the adaptive minimum confidence.
func (e *Engine) Threshold(winRate float64, recent []domain.Digit) Threshold {
	return e.threshold.Explain(winRate, recent)
}

// Decide gates the raw family probability against the adaptive threshold.
func (e *Engine) Decide(window []domain.Digit, family domain.ContractFamily, winRate, stake float64) (domain.Decision, error) {
	return e.DecideWithThreshold(window, family, e.threshold.MinConfidence(winRate, window), stake)
}

// DecideWithThreshold gates the raw family probability against a fixed
// threshold, as backtests do.
func (e *Engine) DecideWithThreshold(window []domain.Digit, family domain.ContractFamily, threshold, stake float64) (domain.Decision, error) {
	ev, err := e.Evaluate(window, family)
	if err != nil {
		return domain.Decision{}, err
	}
	return decision(ev, ev.Probability, threshold, stake), nil
}

// DecideBlended gates the live blend of probability, model confidence and
// sentiment against the adaptive threshold. window feeds the probabilities;
// recent is the full observed history the volatility term reads from.
func (e *Engine) DecideBlended(window, recent []domain.Digit, family domain.ContractFamily, winRate, stake float64, sentiment *float64) (domain.Decision, Evaluation, error) {
	ev, err := e.Evaluate(window, family)
	if err != nil {
		return domain.Decision{}, Evaluation{}, err
	}
	conf := Blend(ev.Probability, ev.ModelConfidence, sentiment)
	return decision(ev, conf, e.threshold.MinConfidence(winRate, recent), stake), ev, nil
}

func decision(ev Evaluation, confidence, threshold, stake float64) domain.Decision {
	return domain.Decision{
		Trade: domain.TradeDecision{
			Contract:   ev.Contract,
			Confidence: confidence,
			Stake:      stake,
		},
		Probability: ev.Probability,
		Threshold:   threshold,
		Prediction:  ev.Prediction,
	}
}
