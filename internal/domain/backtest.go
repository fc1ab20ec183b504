package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// BacktestConfig parameterizes one simulator run.
type BacktestConfig struct {
	Family            ContractFamily `json:"contract_type" validate:"oneof=matches differs over_under even_odd"`
	StakeAmount       float64        `json:"stake_amount" validate:"gt=0"`
	MartingaleEnabled bool           `json:"martingale_enabled"`
	MartingaleStart   int            `json:"martingale_start" validate:"gte=1"`
	MaxMartingale     int            `json:"max_martingale" validate:"gte=0,lte=20"`
	MaxRiskFraction   float64        `json:"max_risk_fraction" validate:"gt=0,lte=1"`
	MinConfidence     float64        `json:"min_confidence" validate:"gte=0,lte=1"`
	WindowSize        int            `json:"window_size" validate:"gte=1"`
	InitialBalance    float64        `json:"initial_balance" validate:"gt=0"`
	Predictor         string         `json:"predictor,omitempty"`
}

// DefaultBacktestConfig mirrors the defaults of the backtest form.
func DefaultBacktestConfig() BacktestConfig {
	return BacktestConfig{
		Family:          FamilyMatches,
		StakeAmount:     10,
		MartingaleStart: 1,
		MaxMartingale:   5,
		MaxRiskFraction: 0.05,
		MinConfidence:   0.6,
		WindowSize:      20,
		InitialBalance:  1000,
	}
}

// Validate fails fast with ErrConfiguration.
func (c BacktestConfig) Validate() error {
	return Validate(c)
}

// Limits returns the risk limits of the run.
func (c BacktestConfig) Limits() RiskLimits {
	return RiskLimits{MaxRiskFraction: c.MaxRiskFraction, MaxMartingaleLevel: c.MaxMartingale}
}

// ProfitFactor serializes +Inf as the string "Infinity" so that JSON
// encoding never sees a raw infinity.
type ProfitFactor float64

// InfiniteProfitFactor is used when a run has wins and no losses.
var InfiniteProfitFactor = ProfitFactor(math.Inf(1))

// IsInf reports whether the factor is infinite.
func (p ProfitFactor) IsInf() bool { return math.IsInf(float64(p), 1) }

func (p ProfitFactor) String() string {
	if p.IsInf() {
		return "Infinity"
	}
	return fmt.Sprintf("%.2f", float64(p))
}

func (p ProfitFactor) MarshalJSON() ([]byte, error) {
	if p.IsInf() {
		return []byte(`"Infinity"`), nil
	}
	return json.Marshal(float64(p))
}

func (p *ProfitFactor) UnmarshalJSON(b []byte) error {
	if string(b) == `"Infinity"` {
		*p = InfiniteProfitFactor
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("domain.ProfitFactor: %w", err)
	}
	*p = ProfitFactor(f)
	return nil
}

// BacktestSummary is computed once from the full trade log.
type BacktestSummary struct {
	TotalTrades           int          `json:"total_trades"`
	Wins                  int          `json:"wins"`
	Losses                int          `json:"losses"`
	WinRate               float64      `json:"win_rate"`
	ProfitLoss            float64      `json:"profit_loss"`
	MaxConsecutiveWins    int          `json:"max_consecutive_wins"`
	MaxConsecutiveLosses  int          `json:"max_consecutive_losses"`
	MaxDrawdown           float64      `json:"max_drawdown"`
	MaxDrawdownPercentage float64      `json:"max_drawdown_percentage"`
	ProfitFactor          ProfitFactor `json:"profit_factor"`
	SharpeRatio           float64      `json:"sharpe_ratio"`
	AverageWin            float64      `json:"average_win"`
	AverageLoss           float64      `json:"average_loss"`
	LargestWin            float64      `json:"largest_win"`
	LargestLoss           float64      `json:"largest_loss"`
}

// EquityPoint is one (trade index, cumulative balance) sample.
type EquityPoint struct {
	X int     `json:"x"`
	Y float64 `json:"y"`
}

// BacktestResult is everything a run produces.
type BacktestResult struct {
	ID          string          `json:"id"`
	Config      BacktestConfig  `json:"config"`
	Trades      []TradeOutcome  `json:"trades"`
	Summary     BacktestSummary `json:"summary"`
	EquityCurve []EquityPoint   `json:"equity_curve"`
	SeriesLen   int             `json:"series_len"`
	CreatedAt   time.Time       `json:"created_at"`
}
