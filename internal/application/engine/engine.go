// Package engine holds what the backtest and live engines share.
package engine

import (
	"time"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// Recorder receives engine events. The metrics package implements it; tests
// and library callers use NopRecorder.
type Recorder interface {
	TradeSettled(win bool, profit, stake float64)
	TradeSkipped(reason string)
	SessionState(state domain.SessionState)
	SessionPnL(pnl float64)
	ConnectAttempt(outcome string)
	BacktestRun(trades int, elapsed time.Duration)
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) TradeSettled(bool, float64, float64) {}
func (NopRecorder) TradeSkipped(string)                  {}
func (NopRecorder) SessionState(domain.SessionState)     {}
func (NopRecorder) SessionPnL(float64)                   {}
func (NopRecorder) ConnectAttempt(string)                {}
func (NopRecorder) BacktestRun(int, time.Duration)       {}
