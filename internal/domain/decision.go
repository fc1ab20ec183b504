package domain

// Probabilities holds the frequency-derived probability of every contract
// family over one window, plus the digits the match/differ families target.
type Probabilities struct {
	Matches     float64 `json:"matches"`
	Differs     float64 `json:"differs"`
	Over        float64 `json:"over"`
	Under       float64 `json:"under"`
	Even        float64 `json:"even"`
	Odd         float64 `json:"odd"`
	MatchDigit  Digit   `json:"match_digit"`
	DifferDigit Digit   `json:"differ_digit"`
}

// TradeDecision is produced once by the decision engine and consumed by both
// the simulator and the live executor.
type TradeDecision struct {
	Contract   Contract `json:"contract"`
	Confidence float64  `json:"confidence"`
	Stake      float64  `json:"stake"`
}

// Decision wraps a TradeDecision with the gate it was checked against.
// A decision below its threshold is a no-trade outcome, not an error.
type Decision struct {
	Trade       TradeDecision `json:"trade"`
	Probability float64       `json:"probability"`
	Threshold   float64       `json:"threshold"`
	Prediction  Digit         `json:"prediction"`
}

// Actionable reports whether the confidence clears the threshold.
func (d Decision) Actionable() bool {
	return d.Trade.Confidence >= d.Threshold
}

// TradeOutcome is one realized trade. It is appended to a log and never mutated.
type TradeOutcome struct {
	Index           int           `json:"index"`
	Decision        TradeDecision `json:"decision"`
	Window          []Digit       `json:"window,omitempty"`
	Prediction      Digit         `json:"prediction"`
	Realized        Digit         `json:"actual"`
	IsWin           bool          `json:"is_win"`
	Profit          float64       `json:"profit"`
	BalanceAfter    float64       `json:"balance"`
	MartingaleLevel int           `json:"martingale_level"`
}
