package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/alejandrodnm/digitbot/internal/adapters/history"
	"github.com/alejandrodnm/digitbot/internal/adapters/paper"
	"github.com/alejandrodnm/digitbot/internal/application/engine/backtest"
	"github.com/alejandrodnm/digitbot/internal/domain"
)

func (a *app) runBacktest(ctx context.Context) error {
	series, source, err := a.loadSeries(ctx)
	if err != nil {
		return err
	}
	slog.Info("backtest: series loaded", "source", source, "digits", len(series))

	sim := backtest.NewSimulator(backtest.WithRecorder(a.recorder))
	base := a.cfg.BacktestRun()

	if a.opts.sweep {
		return a.runSweep(ctx, sim, series, base)
	}

	result, err := sim.Run(ctx, series, base)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}
	a.save(ctx, result)

	if a.opts.asJSON {
		return writeJSON(result)
	}
	return a.notifier.NotifyBacktest(ctx, result)
}

func (a *app) runSweep(ctx context.Context, sim *backtest.Simulator, series []domain.Digit, base domain.BacktestConfig) error {
	families := make([]domain.ContractFamily, 0, len(a.cfg.Backtest.SweepFamilies))
	for _, f := range a.cfg.Backtest.SweepFamilies {
		fam, err := domain.ParseContractFamily(f)
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		families = append(families, fam)
	}
	configs := backtest.Grid(base, families, a.cfg.Backtest.SweepConfidences)
	slog.Info("backtest: sweep starting", "runs", len(configs), "workers", a.cfg.Backtest.Workers)

	runs := sim.Sweep(ctx, series, configs, a.cfg.Backtest.Workers)
	results := make([]domain.BacktestResult, 0, len(runs))
	for _, r := range runs {
		if r.Err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("backtest: sweep run failed",
				"family", r.Config.Family,
				"min_confidence", r.Config.MinConfidence,
				"err", r.Err,
			)
			continue
		}
		a.save(ctx, r.Result)
		results = append(results, r.Result)
	}

	if a.opts.asJSON {
		return writeJSON(results)
	}
	return a.notifier.NotifySweep(ctx, results)
}

// loadSeries picks the first configured source: CSV file, inline digits,
// synthetic walk, then stored history of the configured market.
func (a *app) loadSeries(ctx context.Context) ([]domain.Digit, string, error) {
	switch {
	case a.opts.dataPath != "":
		series, err := history.LoadFile(a.opts.dataPath, history.Options{PipDecimals: a.cfg.Backtest.PipDecimals})
		return series, a.opts.dataPath, err
	case a.opts.digits != "":
		return history.ParseDigits(a.opts.digits), "inline", nil
	case a.opts.synthetic > 0:
		v := paper.New(paper.Config{Seed: a.opts.seed})
		return domain.DigitsOf(v.Generate(a.opts.synthetic)), "synthetic", nil
	case a.opts.fromDB > 0:
		series, err := a.store.RecentDigits(ctx, a.cfg.Trading.Market, a.opts.fromDB)
		if err != nil {
			return nil, "", fmt.Errorf("backtest: stored digits: %w", err)
		}
		return series, "storage:" + a.cfg.Trading.Market, nil
	}
	return nil, "", fmt.Errorf("backtest: no series, use -data, -digits, -synthetic or -from-db: %w", domain.ErrConfiguration)
}

func (a *app) save(ctx context.Context, r domain.BacktestResult) {
	if a.opts.noSave {
		return
	}
	if err := a.store.SaveBacktest(ctx, r); err != nil {
		slog.Warn("backtest: save failed", "id", r.ID, "err", err)
	}
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
