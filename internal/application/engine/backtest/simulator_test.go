package backtest_test

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/alejandrodnm/digitbot/internal/application/engine/backtest"
	"github.com/alejandrodnm/digitbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alternating(cycles int) []domain.Digit {
	var out []domain.Digit
	for c := 0; c < cycles; c++ {
		for _, d := range []domain.Digit{1, 2, 3, 4, 5, 6, 7, 8, 9, 0} {
			out = append(out, d)
		}
	}
	return out
}

func randomSeries(seed uint64, n int) []domain.Digit {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]domain.Digit, n)
	for i := range out {
		out[i] = domain.Digit(rng.IntN(10))
	}
	return out
}

func TestRun_AlternatingEvenOdd(t *testing.T) {
	series := alternating(50)
	cfg := domain.DefaultBacktestConfig()
	cfg.Family = domain.FamilyEvenOdd
	cfg.MinConfidence = 0.5
	cfg.WindowSize = 20

	res, err := backtest.Run(series, cfg)
	require.NoError(t, err)

	s := res.Summary
	assert.Equal(t, len(series)-cfg.WindowSize-1, s.TotalTrades)
	assert.Equal(t, 479, s.TotalTrades)
	assert.Equal(t, 240, s.Wins)
	assert.Equal(t, 239, s.Losses)
	assert.InDelta(t, 10, s.ProfitLoss, 1e-9)
	assert.Equal(t, 1, s.MaxConsecutiveWins)
	assert.Equal(t, 1, s.MaxConsecutiveLosses)
	assert.InDelta(t, 10, s.MaxDrawdown, 1e-9)
	assert.InDelta(t, 100, s.MaxDrawdownPercentage, 1e-9)
	assert.InDelta(t, 2400.0/2390.0, float64(s.ProfitFactor), 1e-9)
	assert.Greater(t, s.SharpeRatio, 0.0)

	for _, tr := range res.Trades {
		assert.Equal(t, domain.OddContract(), tr.Decision.Contract)
		assert.InDelta(t, 0.5, tr.Decision.Confidence, 1e-9)
		assert.InDelta(t, 10, tr.Decision.Stake, 1e-9)
	}

	require.Len(t, res.EquityCurve, 480)
	assert.Equal(t, domain.EquityPoint{X: 0, Y: 0}, res.EquityCurve[0])
	assert.Equal(t, 479, res.EquityCurve[479].X)
	assert.InDelta(t, 10, res.EquityCurve[479].Y, 1e-9)
	assert.Equal(t, 500, res.SeriesLen)
	assert.NotEmpty(t, res.ID)
}

func TestRun_Deterministic(t *testing.T) {
	series := randomSeries(42, 600)
	for _, fam := range []domain.ContractFamily{
		domain.FamilyMatches, domain.FamilyDiffers, domain.FamilyOverUnder, domain.FamilyEvenOdd,
	} {
		cfg := domain.DefaultBacktestConfig()
		cfg.Family = fam
		cfg.MinConfidence = 0.15
		cfg.MartingaleEnabled = true

		a, err := backtest.Run(series, cfg)
		require.NoError(t, err)
		b, err := backtest.Run(series, cfg)
		require.NoError(t, err)

		ja, err := json.Marshal(struct {
			T []domain.TradeOutcome
			S domain.BacktestSummary
		}{a.Trades, a.Summary})
		require.NoError(t, err)
		jb, err := json.Marshal(struct {
			T []domain.TradeOutcome
			S domain.BacktestSummary
		}{b.Trades, b.Summary})
		require.NoError(t, err)

		assert.Equal(t, string(ja), string(jb), "family %s", fam)
		assert.Equal(t, a.EquityCurve, b.EquityCurve)
	}
}

func TestRun_InsufficientData(t *testing.T) {
	cfg := domain.DefaultBacktestConfig()

	_, err := backtest.Run(randomSeries(1, cfg.WindowSize-1), cfg)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	res, err := backtest.Run(randomSeries(1, cfg.WindowSize), cfg)
	require.NoError(t, err)
	assert.Zero(t, res.Summary.TotalTrades)
	assert.Zero(t, float64(res.Summary.ProfitFactor))
	assert.Equal(t, []domain.EquityPoint{{X: 0, Y: 0}}, res.EquityCurve)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := domain.DefaultBacktestConfig()
	cfg.StakeAmount = -5

	_, err := backtest.Run(alternating(5), cfg)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	cfg = domain.DefaultBacktestConfig()
	cfg.Predictor = "lstm"
	_, err = backtest.Run(alternating(5), cfg)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRun_InvalidDigit(t *testing.T) {
	series := alternating(5)
	series[7] = 12

	_, err := backtest.Run(series, domain.DefaultBacktestConfig())
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestRun_AllWinsIsInfiniteProfitFactor(t *testing.T) {
	series := make([]domain.Digit, 40)
	for i := range series {
		series[i] = 3
	}
	cfg := domain.DefaultBacktestConfig()
	cfg.WindowSize = 5

	res, err := backtest.Run(series, cfg)
	require.NoError(t, err)
	assert.Equal(t, 34, res.Summary.TotalTrades)
	assert.Zero(t, res.Summary.Losses)
	assert.True(t, res.Summary.ProfitFactor.IsInf())
	// every return is 9, so the deviation is 0
	assert.Zero(t, res.Summary.SharpeRatio)

	raw, err := json.Marshal(res.Summary)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"profit_factor":"Infinity"`)
}

func TestRun_SkippedStepKeepsMartingale(t *testing.T) {
	// i=3 trades [1 1 2] and loses on 5, i=4 skips [1 2 5],
	// i=5 trades [2 5 5] at level 1 and wins on 5
	series := []domain.Digit{1, 1, 2, 5, 5, 5, 0}
	cfg := domain.DefaultBacktestConfig()
	cfg.WindowSize = 3
	cfg.MartingaleEnabled = true

	res, err := backtest.Run(series, cfg)
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)

	first, second := res.Trades[0], res.Trades[1]
	assert.Equal(t, 3, first.Index)
	assert.False(t, first.IsWin)
	assert.Equal(t, 0, first.MartingaleLevel)
	assert.InDelta(t, -10, first.Profit, 1e-9)

	assert.Equal(t, 5, second.Index)
	assert.Equal(t, 1, second.MartingaleLevel)
	assert.InDelta(t, 18, second.Decision.Stake, 1e-9)
	assert.True(t, second.IsWin)
	assert.InDelta(t, 162, second.Profit, 1e-9)
	assert.Equal(t, []domain.Digit{2, 5, 5}, second.Window)
	assert.Equal(t, domain.MatchContract(5), second.Decision.Contract)

	s := res.Summary
	assert.InDelta(t, 152, s.ProfitLoss, 1e-9)
	assert.InDelta(t, 16.2, float64(s.ProfitFactor), 1e-9)
	assert.InDelta(t, 162, s.LargestWin, 1e-9)
	assert.InDelta(t, 10, s.LargestLoss, 1e-9)
	assert.InDelta(t, 10, s.MaxDrawdown, 1e-9)
	assert.Zero(t, s.MaxDrawdownPercentage)
	assert.InDelta(t, 50, s.WinRate, 1e-9)
}

func TestRun_MartingaleDisabledKeepsBaseStake(t *testing.T) {
	cfg := domain.DefaultBacktestConfig()
	cfg.Family = domain.FamilyDiffers
	cfg.MinConfidence = 0

	res, err := backtest.Run(randomSeries(9, 300), cfg)
	require.NoError(t, err)
	require.NotEmpty(t, res.Trades)
	for _, tr := range res.Trades {
		assert.InDelta(t, cfg.StakeAmount, tr.Decision.Stake, 1e-9)
	}
}

func TestRun_StakeRespectsRiskCap(t *testing.T) {
	cfg := domain.DefaultBacktestConfig()
	cfg.MartingaleEnabled = true
	cfg.MinConfidence = 0
	cfg.MaxMartingale = 8

	res, err := backtest.Run(randomSeries(5, 400), cfg)
	require.NoError(t, err)

	balance := cfg.InitialBalance
	for _, tr := range res.Trades {
		limit := max(cfg.StakeAmount, balance*cfg.MaxRiskFraction)
		assert.LessOrEqual(t, tr.Decision.Stake, limit+1e-9)
		assert.LessOrEqual(t, tr.MartingaleLevel, cfg.MaxMartingale)
		balance = cfg.InitialBalance + tr.BalanceAfter
	}
}

func TestSimulator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := backtest.NewSimulator().Run(ctx, alternating(5), domain.DefaultBacktestConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

type countingRecorder struct {
	runs   int
	trades int
}

func (r *countingRecorder) TradeSettled(bool, float64, float64) {}
func (r *countingRecorder) TradeSkipped(string)                  {}
func (r *countingRecorder) SessionState(domain.SessionState)     {}
func (r *countingRecorder) SessionPnL(float64)                   {}
func (r *countingRecorder) ConnectAttempt(string)                {}
func (r *countingRecorder) BacktestRun(trades int, _ time.Duration) {
	r.runs++
	r.trades += trades
}

func TestSimulator_OptionsApply(t *testing.T) {
	rec := &countingRecorder{}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sim := backtest.NewSimulator(backtest.WithRecorder(rec), backtest.WithClock(func() time.Time { return fixed }))

	cfg := domain.DefaultBacktestConfig()
	cfg.Family = domain.FamilyEvenOdd
	cfg.MinConfidence = 0.5
	res, err := sim.Run(context.Background(), alternating(50), cfg)
	require.NoError(t, err)

	assert.Equal(t, fixed, res.CreatedAt)
	assert.Equal(t, 1, rec.runs)
	assert.Equal(t, 479, rec.trades)
}
