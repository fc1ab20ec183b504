package domain

// MartingaleState is owned by exactly one stake controller per trading
// context. Level never exceeds RiskLimits.MaxMartingaleLevel.
type MartingaleState struct {
	Level             int     `json:"level"`
	ConsecutiveLosses int     `json:"consecutive_losses"`
	BaseStake         float64 `json:"base_stake"`
	CumulativePnL     float64 `json:"cumulative_profit_loss"`
}

// RiskLimits is read-only configuration during a run.
type RiskLimits struct {
	MaxRiskFraction    float64 `json:"max_risk_fraction" validate:"gt=0,lte=1"`
	MaxMartingaleLevel int     `json:"max_martingale_level" validate:"gte=0,lte=20"`
}

// DefaultRiskLimits stakes at most 5% of the balance and escalates up to level 5.
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{MaxRiskFraction: 0.05, MaxMartingaleLevel: 5}
}
