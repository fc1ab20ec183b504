package ports

import (
	"context"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// SessionStore persists live sessions, their settled trades and the digit
// history observed on each market.
type SessionStore interface {
	// SaveSession inserts or updates the session row.
	SaveSession(ctx context.Context, s domain.SessionSnapshot) error

	// SaveLiveTrade appends a settled trade.
	SaveLiveTrade(ctx context.Context, t domain.LiveTrade) error

	// GetLiveTrades returns the trades of a session in settlement order.
	GetLiveTrades(ctx context.Context, sessionID string) ([]domain.LiveTrade, error)

	// SaveTicks stores observed ticks; already known epochs are ignored.
	SaveTicks(ctx context.Context, market string, ticks []domain.Tick) error

	// RecentDigits returns up to limit of the newest stored digits, oldest first.
	RecentDigits(ctx context.Context, market string, limit int) ([]domain.Digit, error)
}

// BacktestStore persists backtest runs.
type BacktestStore interface {
	SaveBacktest(ctx context.Context, r domain.BacktestResult) error

	// GetBacktest loads a run with its trade log.
	GetBacktest(ctx context.Context, id string) (domain.BacktestResult, error)

	// ListBacktests returns the newest runs without their trade logs.
	ListBacktests(ctx context.Context, limit int) ([]domain.BacktestResult, error)
}

// Storage is the full persistence surface.
type Storage interface {
	SessionStore
	BacktestStore

	// Close releases the database handle.
	Close() error
}
