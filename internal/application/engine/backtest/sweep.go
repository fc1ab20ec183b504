package backtest

// sweep.go: worker pool that runs many independent configurations over the
// same series. Each run owns its own stake controller; the series is only read.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// SweepResult pairs a configuration with its outcome.
type SweepResult struct {
	Config domain.BacktestConfig
	Result domain.BacktestResult
	Err    error
}

// Sweep runs every config concurrently and returns results in input order.
// If workers <= 0 it uses runtime.NumCPU().
func (s *Simulator) Sweep(ctx context.Context, series []domain.Digit, configs []domain.BacktestConfig, workers int) []SweepResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(1, len(configs)))

	type job struct {
		idx int
		cfg domain.BacktestConfig
	}
	jobs := make(chan job, len(configs))
	results := make([]SweepResult, len(configs))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res, err := s.Run(ctx, series, j.cfg)
				if err != nil {
					slog.Debug("backtest: sweep run failed", "idx", j.idx, "family", j.cfg.Family, "err", err)
				}
				results[j.idx] = SweepResult{Config: j.cfg, Result: res, Err: err}
			}
		}()
	}

	for i, cfg := range configs {
		jobs <- job{idx: i, cfg: cfg}
	}
	close(jobs)
	wg.Wait()

	slog.Debug("backtest: sweep complete", "runs", len(configs), "workers", workers)
	return results
}

// Grid expands a base config over families and minimum confidences.
func Grid(base domain.BacktestConfig, families []domain.ContractFamily, confidences []float64) []domain.BacktestConfig {
	if len(families) == 0 {
		families = []domain.ContractFamily{base.Family}
	}
	if len(confidences) == 0 {
		confidences = []float64{base.MinConfidence}
	}
	out := make([]domain.BacktestConfig, 0, len(families)*len(confidences))
	for _, f := range families {
		for _, c := range confidences {
			cfg := base
			cfg.Family = f
			cfg.MinConfidence = c
			out = append(out, cfg)
		}
	}
	return out
}
