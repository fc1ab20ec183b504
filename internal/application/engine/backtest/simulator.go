// Package backtest replays a historical digit series through the same
// decision and stake algorithms the live session uses.
package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/digitbot/internal/analysis"
	"github.com/alejandrodnm/digitbot/internal/application/engine"
	"github.com/alejandrodnm/digitbot/internal/domain"
	"github.com/alejandrodnm/digitbot/internal/strategy"
	"github.com/google/uuid"
)

// windowShown is how many digits of the decision window a trade keeps.
const windowShown = 10

// Simulator runs backtests. It holds no per-run state, so one Simulator can
// serve concurrent runs.
type Simulator struct {
	registry strategy.Registry
	recorder engine.Recorder
	now      func() time.Time
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithRegistry selects the predictors available to BacktestConfig.Predictor.
func WithRegistry(r strategy.Registry) Option {
	return func(s *Simulator) { s.registry = r }
}

// WithRecorder reports every finished run.
func WithRecorder(r engine.Recorder) Option {
	return func(s *Simulator) { s.recorder = r }
}

// WithClock overrides time.Now for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// NewSimulator builds a simulator with the default predictors.
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		registry: strategy.DefaultRegistry(),
		recorder: engine.NopRecorder{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run simulates with the default simulator.
func Run(series []domain.Digit, cfg domain.BacktestConfig) (domain.BacktestResult, error) {
	return NewSimulator().Run(context.Background(), series, cfg)
}

// Run walks the series forward: for every i in [window, len-1) the window
// series[i-window:i] decides and series[i] settles. Steps under the fixed
// MinConfidence are skipped entirely and leave the martingale untouched.
// Cancelling ctx stops the walk and returns ctx.Err().
func (s *Simulator) Run(ctx context.Context, series []domain.Digit, cfg domain.BacktestConfig) (domain.BacktestResult, error) {
	start := time.Now()
	if err := cfg.Validate(); err != nil {
		return domain.BacktestResult{}, fmt.Errorf("backtest.Run: %w", err)
	}
	if len(series) < cfg.WindowSize {
		return domain.BacktestResult{}, fmt.Errorf("backtest.Run: %d digits for window %d: %w",
			len(series), cfg.WindowSize, domain.ErrInsufficientData)
	}
	for i, d := range series {
		if !d.Valid() {
			return domain.BacktestResult{}, fmt.Errorf("backtest.Run: digit %d at %d: %w", d, i, domain.ErrConfiguration)
		}
	}
	pred, err := s.registry.Resolve(cfg.Predictor)
	if err != nil {
		return domain.BacktestResult{}, fmt.Errorf("backtest.Run: %w", err)
	}

	eng := strategy.NewEngine(pred)
	stakes := strategy.NewStakeController(cfg.StakeAmount, cfg.MartingaleStart, cfg.Limits(), cfg.MartingaleEnabled)

	trades := []domain.TradeOutcome{}
	curve := []domain.EquityPoint{{X: 0, Y: 0}}
	pnl := 0.0

	for i := cfg.WindowSize; i < len(series)-1; i++ {
		if err := ctx.Err(); err != nil {
			return domain.BacktestResult{}, fmt.Errorf("backtest.Run: %w", err)
		}
		window := series[i-cfg.WindowSize : i]
		stake := stakes.Next(cfg.InitialBalance + pnl)

		dec, err := eng.DecideWithThreshold(window, cfg.Family, cfg.MinConfidence, stake)
		if err != nil {
			return domain.BacktestResult{}, fmt.Errorf("backtest.Run: step %d: %w", i, err)
		}
		if !dec.Actionable() {
			continue
		}

		actual := series[i]
		win, profit := dec.Trade.Contract.Realize(stake, actual)
		level := stakes.State().Level
		stakes.Record(win, profit)
		pnl += profit

		trades = append(trades, domain.TradeOutcome{
			Index:           i,
			Decision:        dec.Trade,
			Window:          analysis.Tail(window, windowShown),
			Prediction:      dec.Prediction,
			Realized:        actual,
			IsWin:           win,
			Profit:          profit,
			BalanceAfter:    pnl,
			MartingaleLevel: level,
		})
		curve = append(curve, domain.EquityPoint{X: len(trades), Y: pnl})
	}

	summary := Summarize(trades)
	s.recorder.BacktestRun(summary.TotalTrades, time.Since(start))
	slog.Debug("backtest: run complete",
		"family", cfg.Family,
		"series", len(series),
		"trades", summary.TotalTrades,
		"profit_loss", summary.ProfitLoss,
	)

	return domain.BacktestResult{
		ID:          uuid.New().String(),
		Config:      cfg,
		Trades:      trades,
		Summary:     summary,
		EquityCurve: curve,
		SeriesLen:   len(series),
		CreatedAt:   s.now().UTC(),
	}, nil
}
