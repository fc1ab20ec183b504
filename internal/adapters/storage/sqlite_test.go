package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/digitbot/internal/adapters/storage"
	"github.com/alejandrodnm/digitbot/internal/domain"
	"github.com/alejandrodnm/digitbot/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Storage = (*storage.SQLiteStorage)(nil)

func openDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteStorage_SessionUpsert(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	snap := domain.SessionSnapshot{
		ID: "s1", State: domain.StateReady, Market: "R_100", LoginID: "CR1",
		Balance: 100, Currency: "USD", StartedAt: started,
	}
	require.NoError(t, db.SaveSession(ctx, snap))

	ended := started.Add(time.Hour)
	snap.State = domain.StateTerminated
	snap.PauseReason = domain.PauseStopLoss
	snap.Wins, snap.Losses, snap.ProfitLoss = 3, 4, -12.5
	snap.BreakAfterWin = true
	snap.EndedAt = &ended
	require.NoError(t, db.SaveSession(ctx, snap))

	got, err := db.ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, snap, got[0])
}

func TestSQLiteStorage_LiveTradesKeepOrder(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	trades := []domain.LiveTrade{
		{ID: "b", SessionID: "s1", ContractID: "1", Market: "R_100", Contract: domain.MatchContract(7),
			Stake: 10, Confidence: 0.7, Threshold: 0.6, IsWin: false, Profit: -10, CumulativePnL: -10, SettledAt: at},
		{ID: "a", SessionID: "s1", ContractID: "2", Market: "R_100", Contract: domain.MatchContract(7),
			Stake: 18, Confidence: 0.71, Threshold: 0.6, IsWin: true, Profit: 162, CumulativePnL: 152,
			MartingaleLevel: 1, SettledAt: at.Add(time.Second)},
		{ID: "c", SessionID: "other", ContractID: "3", Market: "R_50", Contract: domain.EvenContract(),
			Stake: 5, IsWin: true, Profit: 5, CumulativePnL: 5, SettledAt: at},
	}
	for _, tr := range trades {
		require.NoError(t, db.SaveLiveTrade(ctx, tr))
	}

	got, err := db.GetLiveTrades(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, trades[0], got[0])
	assert.Equal(t, trades[1], got[1])

	none, err := db.GetLiveTrades(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStorage_DigitHistory(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	tick := func(sec int, d domain.Digit) domain.Tick {
		return domain.Tick{Price: 100 + float64(d)/100, Digit: d, Epoch: base.Add(time.Duration(sec) * time.Second)}
	}
	require.NoError(t, db.SaveTicks(ctx, "R_100", []domain.Tick{tick(1, 3), tick(2, 1), tick(3, 4)}))
	// overlapping snapshot: known epochs are ignored
	require.NoError(t, db.SaveTicks(ctx, "R_100", []domain.Tick{tick(3, 9), tick(4, 1), tick(5, 5)}))
	require.NoError(t, db.SaveTicks(ctx, "R_50", []domain.Tick{tick(6, 8)}))
	require.NoError(t, db.SaveTicks(ctx, "R_50", nil))

	all, err := db.RecentDigits(ctx, "R_100", 100)
	require.NoError(t, err)
	assert.Equal(t, []domain.Digit{3, 1, 4, 1, 5}, all)

	last, err := db.RecentDigits(ctx, "R_100", 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.Digit{1, 5}, last)

	other, err := db.RecentDigits(ctx, "R_50", 10)
	require.NoError(t, err)
	assert.Equal(t, []domain.Digit{8}, other)
}

func sampleBacktest(id string, created time.Time) domain.BacktestResult {
	return domain.BacktestResult{
		ID:     id,
		Config: domain.DefaultBacktestConfig(),
		Trades: []domain.TradeOutcome{
			{Index: 20, Decision: domain.TradeDecision{Contract: domain.MatchContract(5), Confidence: 0.65, Stake: 10},
				Window: []domain.Digit{5, 0, 5, 9}, Prediction: 5, Realized: 5, IsWin: true, Profit: 90, BalanceAfter: 90},
			{Index: 21, Decision: domain.TradeDecision{Contract: domain.MatchContract(5), Confidence: 0.6, Stake: 10},
				Window: []domain.Digit{0, 5, 9, 5}, Prediction: 5, Realized: 2, Profit: -10, BalanceAfter: 80},
		},
		Summary: domain.BacktestSummary{
			TotalTrades: 2, Wins: 1, Losses: 1, WinRate: 50, ProfitLoss: 80,
			ProfitFactor: 9, LargestWin: 90, LargestLoss: 10,
		},
		EquityCurve: []domain.EquityPoint{{X: 0, Y: 0}, {X: 1, Y: 90}, {X: 2, Y: 80}},
		SeriesLen:   100,
		CreatedAt:   created,
	}
}

func TestSQLiteStorage_BacktestRoundTrip(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	want := sampleBacktest("bt1", time.Date(2026, 3, 1, 10, 0, 0, 123, time.UTC))

	require.NoError(t, db.SaveBacktest(ctx, want))

	got, err := db.GetBacktest(ctx, "bt1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSQLiteStorage_BacktestInfiniteProfitFactor(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	r := sampleBacktest("inf", time.Now().UTC())
	r.Summary.ProfitFactor = domain.InfiniteProfitFactor

	require.NoError(t, db.SaveBacktest(ctx, r))
	got, err := db.GetBacktest(ctx, "inf")
	require.NoError(t, err)
	assert.True(t, got.Summary.ProfitFactor.IsInf())
}

func TestSQLiteStorage_GetBacktestNotFound(t *testing.T) {
	db := openDB(t)
	_, err := db.GetBacktest(context.Background(), "nope")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLiteStorage_ListBacktestsNewestFirst(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveBacktest(ctx, sampleBacktest("old", base)))
	require.NoError(t, db.SaveBacktest(ctx, sampleBacktest("new", base.Add(time.Minute))))
	require.NoError(t, db.SaveBacktest(ctx, sampleBacktest("mid", base.Add(time.Second))))

	got, err := db.ListBacktests(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
	assert.Empty(t, got[0].Trades)
	assert.Equal(t, 80.0, got[0].Summary.ProfitLoss)
}

func TestSQLiteStorage_DuplicateBacktestRollsBack(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	r := sampleBacktest("dup", time.Now().UTC())

	require.NoError(t, db.SaveBacktest(ctx, r))
	require.Error(t, db.SaveBacktest(ctx, r))

	got, err := db.GetBacktest(ctx, "dup")
	require.NoError(t, err)
	assert.Len(t, got.Trades, 2)
}
