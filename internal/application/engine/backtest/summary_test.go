package backtest_test

import (
	"math"
	"testing"

	"github.com/alejandrodnm/digitbot/internal/application/engine/backtest"
	"github.com/alejandrodnm/digitbot/internal/domain"
	"github.com/stretchr/testify/assert"
)

func outcome(win bool, stake, profit, balance float64) domain.TradeOutcome {
	return domain.TradeOutcome{
		Decision:     domain.TradeDecision{Stake: stake},
		IsWin:        win,
		Profit:       profit,
		BalanceAfter: balance,
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := backtest.Summarize(nil)

	assert.Equal(t, domain.BacktestSummary{}, s)
	assert.False(t, s.ProfitFactor.IsInf())
}

func TestSummarize_Statistics(t *testing.T) {
	trades := []domain.TradeOutcome{
		outcome(true, 10, 10, 10),
		outcome(true, 10, 10, 20),
		outcome(false, 10, -10, 10),
		outcome(false, 20, -20, -10),
		outcome(false, 10, -10, -20),
		outcome(true, 10, 10, -10),
	}
	s := backtest.Summarize(trades)

	assert.Equal(t, 6, s.TotalTrades)
	assert.Equal(t, 3, s.Wins)
	assert.Equal(t, 3, s.Losses)
	assert.InDelta(t, 50, s.WinRate, 1e-9)
	assert.InDelta(t, -10, s.ProfitLoss, 1e-9)
	assert.Equal(t, 2, s.MaxConsecutiveWins)
	assert.Equal(t, 3, s.MaxConsecutiveLosses)
	assert.InDelta(t, 40, s.MaxDrawdown, 1e-9)
	assert.InDelta(t, 200, s.MaxDrawdownPercentage, 1e-9)
	assert.InDelta(t, 0.75, float64(s.ProfitFactor), 1e-9)
	assert.InDelta(t, 10, s.AverageWin, 1e-9)
	assert.InDelta(t, 40.0/3, s.AverageLoss, 1e-9)
	assert.InDelta(t, 10, s.LargestWin, 1e-9)
	assert.InDelta(t, 20, s.LargestLoss, 1e-9)
	// returns are +1 and -1 in equal number
	assert.InDelta(t, 0, s.SharpeRatio, 1e-9)
}

func TestSummarize_Sharpe(t *testing.T) {
	trades := []domain.TradeOutcome{
		outcome(true, 10, 9, 9),
		outcome(false, 10, -10, -1),
	}
	s := backtest.Summarize(trades)

	mean := (0.9 - 1) / 2
	std := math.Sqrt(((0.9-mean)*(0.9-mean) + (-1-mean)*(-1-mean)) / 2)
	assert.InDelta(t, mean/std, s.SharpeRatio, 1e-9)
}

func TestSummarize_AllLosses(t *testing.T) {
	s := backtest.Summarize([]domain.TradeOutcome{
		outcome(false, 10, -10, -10),
		outcome(false, 10, -10, -20),
	})

	assert.Zero(t, float64(s.ProfitFactor))
	assert.Zero(t, s.AverageWin)
	assert.InDelta(t, 20, s.MaxDrawdown, 1e-9)
	assert.Zero(t, s.MaxDrawdownPercentage)
}
