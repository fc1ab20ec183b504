package backtest

import (
	"math"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// Summarize derives every statistic from the final trade log. BalanceAfter
// of each trade is the cumulative profit/loss, starting from 0.
func Summarize(trades []domain.TradeOutcome) domain.BacktestSummary {
	var s domain.BacktestSummary
	s.TotalTrades = len(trades)
	if s.TotalTrades == 0 {
		return s
	}

	var grossWin, grossLoss, peak, balance float64
	var winStreak, lossStreak int
	returns := make([]float64, 0, len(trades))

	for _, t := range trades {
		if t.IsWin {
			s.Wins++
			winStreak++
			lossStreak = 0
			s.MaxConsecutiveWins = max(s.MaxConsecutiveWins, winStreak)
		} else {
			s.Losses++
			lossStreak++
			winStreak = 0
			s.MaxConsecutiveLosses = max(s.MaxConsecutiveLosses, lossStreak)
		}

		switch {
		case t.Profit > 0:
			grossWin += t.Profit
			s.LargestWin = max(s.LargestWin, t.Profit)
		case t.Profit < 0:
			grossLoss += -t.Profit
			s.LargestLoss = max(s.LargestLoss, -t.Profit)
		}

		balance = t.BalanceAfter
		if balance > peak {
			peak = balance
		} else if dd := peak - balance; dd > s.MaxDrawdown {
			s.MaxDrawdown = dd
			if peak > 0 {
				s.MaxDrawdownPercentage = dd / peak * 100
			}
		}

		if t.Decision.Stake > 0 {
			returns = append(returns, t.Profit/t.Decision.Stake)
		}
	}

	s.ProfitLoss = balance
	s.WinRate = float64(s.Wins) / float64(s.TotalTrades) * 100
	s.ProfitFactor = profitFactor(grossWin, grossLoss)
	if s.Wins > 0 {
		s.AverageWin = grossWin / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AverageLoss = grossLoss / float64(s.Losses)
	}
	s.SharpeRatio = sharpe(returns)
	return s
}

// profitFactor is +Inf with gains and no losses, 0 with neither.
func profitFactor(grossWin, grossLoss float64) domain.ProfitFactor {
	if grossLoss == 0 {
		if grossWin > 0 {
			return domain.InfiniteProfitFactor
		}
		return 0
	}
	return domain.ProfitFactor(grossWin / grossLoss)
}

// sharpe is mean/stdev of per-trade returns using the population deviation;
// 0 when the deviation is 0.
func sharpe(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))
	var sq float64
	for _, r := range returns {
		sq += (r - mean) * (r - mean)
	}
	std := math.Sqrt(sq / float64(len(returns)))
	if std == 0 {
		return 0
	}
	return mean / std
}
