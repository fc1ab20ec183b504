package backtest_test

import (
	"context"
	"testing"

	"github.com/alejandrodnm/digitbot/internal/application/engine/backtest"
	"github.com/alejandrodnm/digitbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid(t *testing.T) {
	base := domain.DefaultBacktestConfig()
	cfgs := backtest.Grid(base,
		[]domain.ContractFamily{domain.FamilyMatches, domain.FamilyEvenOdd},
		[]float64{0.1, 0.5, 0.6},
	)

	require.Len(t, cfgs, 6)
	assert.Equal(t, domain.FamilyMatches, cfgs[0].Family)
	assert.InDelta(t, 0.1, cfgs[0].MinConfidence, 1e-9)
	assert.Equal(t, domain.FamilyEvenOdd, cfgs[5].Family)
	assert.InDelta(t, 0.6, cfgs[5].MinConfidence, 1e-9)

	assert.Len(t, backtest.Grid(base, nil, nil), 1)
}

func TestSweep_MatchesSequentialRuns(t *testing.T) {
	series := randomSeries(77, 400)
	base := domain.DefaultBacktestConfig()
	base.MartingaleEnabled = true
	cfgs := backtest.Grid(base,
		[]domain.ContractFamily{domain.FamilyMatches, domain.FamilyDiffers, domain.FamilyOverUnder, domain.FamilyEvenOdd},
		[]float64{0.1, 0.5},
	)
	bad := base
	bad.WindowSize = 0
	cfgs = append(cfgs, bad)

	sim := backtest.NewSimulator()
	results := sim.Sweep(context.Background(), series, cfgs, 3)
	require.Len(t, results, len(cfgs))

	for i, r := range results[:len(results)-1] {
		require.NoError(t, r.Err)
		assert.Equal(t, cfgs[i], r.Config)

		want, err := sim.Run(context.Background(), series, cfgs[i])
		require.NoError(t, err)
		assert.Equal(t, want.Trades, r.Result.Trades)
		assert.Equal(t, want.Summary, r.Result.Summary)
	}
	assert.ErrorIs(t, results[len(results)-1].Err, domain.ErrConfiguration)
}
