package domain

import (
	"fmt"
	"time"
)

// SessionState is the live trading state machine position.
type SessionState string

const (
	StateDisconnected       SessionState = "disconnected"
	StateConnecting         SessionState = "connecting"
	StateReady              SessionState = "ready"
	StateAwaitingSettlement SessionState = "awaiting_settlement"
	StatePaused             SessionState = "paused"
	StateTerminated         SessionState = "terminated"
)

// Ordinal gives a stable numeric code for gauges.
func (s SessionState) Ordinal() int {
	switch s {
	case StateDisconnected:
		return 0
	case StateConnecting:
		return 1
	case StateReady:
		return 2
	case StateAwaitingSettlement:
		return 3
	case StatePaused:
		return 4
	case StateTerminated:
		return 5
	}
	return -1
}

// PauseReason records why a session entered Paused.
type PauseReason string

const (
	PauseNone          PauseReason = ""
	PauseUser          PauseReason = "user"
	PauseTargetProfit  PauseReason = "target_profit"
	PauseStopLoss      PauseReason = "stop_loss"
	PauseBreakAfterWin PauseReason = "break_after_win"
)

// SessionConfig is the live configuration surface consumed by the core.
type SessionConfig struct {
	Market          string         `validate:"required"`
	Family          ContractFamily `validate:"oneof=matches differs over_under even_odd"`
	StakeAmount     float64        `validate:"gt=0"`
	TargetProfit    float64        `validate:"gt=0"`
	StopLoss        float64        `validate:"gt=0"`
	MartingaleStart int            `validate:"gte=1"`
	MaxMartingale   int            `validate:"gte=0,lte=20"`
	MaxRiskFraction float64        `validate:"gt=0,lte=1"`
	WindowSize      int            `validate:"gte=1"`
	HistoryCount    int            `validate:"gtefield=WindowSize"`
	Currency        string
	Predictor       string
}

// DefaultSessionConfig mirrors the defaults of the original trade form.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Market:          "R_100",
		Family:          FamilyMatches,
		StakeAmount:     10,
		TargetProfit:    5,
		StopLoss:        2,
		MartingaleStart: 1,
		MaxMartingale:   5,
		MaxRiskFraction: 0.05,
		WindowSize:      100,
		HistoryCount:    500,
		Currency:        DefaultCurrency,
	}
}

// Validate fails fast with ErrConfiguration.
func (c SessionConfig) Validate() error {
	if err := Validate(c); err != nil {
		return fmt.Errorf("domain.SessionConfig: %w", err)
	}
	return nil
}

// Limits returns the risk limits of the session.
func (c SessionConfig) Limits() RiskLimits {
	return RiskLimits{MaxRiskFraction: c.MaxRiskFraction, MaxMartingaleLevel: c.MaxMartingale}
}

// Account is what the venue reports on authorization.
type Account struct {
	LoginID  string
	Balance  float64
	Currency string
}

// ContractHandle identifies a submitted contract.
type ContractHandle struct {
	ContractID  string
	BuyPrice    float64
	PurchasedAt time.Time
}

// ContractStatus is the venue-side contract lifecycle.
type ContractStatus string

const (
	ContractOpen ContractStatus = "open"
	ContractWon  ContractStatus = "won"
	ContractLost ContractStatus = "lost"
	ContractSold ContractStatus = "sold"
)

// Settled reports whether the contract has reached a terminal status.
func (s ContractStatus) Settled() bool {
	return s == ContractSold || s == ContractWon || s == ContractLost
}

// Settlement is one status update for a contract.
type Settlement struct {
	ContractID string
	Status     ContractStatus
	Profit     float64
	ExitDigit  *Digit
}

// LiveTrade is the persisted record of a settled live trade.
type LiveTrade struct {
	ID              string
	SessionID       string
	ContractID      string
	Market          string
	Contract        Contract
	Stake           float64
	Confidence      float64
	Threshold       float64
	IsWin           bool
	Profit          float64
	CumulativePnL   float64
	MartingaleLevel int
	SettledAt       time.Time
}

// SessionSnapshot is the caller-facing view of a live session.
type SessionSnapshot struct {
	ID              string
	State           SessionState
	PauseReason     PauseReason
	Market          string
	LoginID         string
	Balance         float64
	Currency        string
	Wins            int
	Losses          int
	ProfitLoss      float64
	MartingaleLevel int
	BreakAfterWin   bool
	StartedAt       time.Time
	EndedAt         *time.Time
}

// WinRate returns wins/(wins+losses), or 0.5 when no trades settled yet.
func (s SessionSnapshot) WinRate() float64 {
	total := s.Wins + s.Losses
	if total == 0 {
		return 0.5
	}
	return float64(s.Wins) / float64(total)
}
