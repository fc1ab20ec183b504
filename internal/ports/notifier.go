package ports

import (
	"context"

	"github.com/alejandrodnm/digitbot/internal/analysis"
	"github.com/alejandrodnm/digitbot/internal/domain"
)

// Notifier presents results to the operator.
type Notifier interface {
	NotifyBacktest(ctx context.Context, r domain.BacktestResult) error
	NotifySweep(ctx context.Context, results []domain.BacktestResult) error
	NotifyAnalysis(ctx context.Context, r analysis.Report) error
	NotifyTrade(ctx context.Context, t domain.LiveTrade) error
	NotifySession(ctx context.Context, s domain.SessionSnapshot) error
}
