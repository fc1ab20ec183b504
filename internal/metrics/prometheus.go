// Package metrics exposes engine events as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/alejandrodnm/digitbot/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "digitbot"

// Recorder implements engine.Recorder on its own registry, so several
// recorders (one per test, or per process) never collide.
type Recorder struct {
	registry *prometheus.Registry

	trades        *prometheus.CounterVec
	skips         *prometheus.CounterVec
	profit        prometheus.Counter
	stake         prometheus.Gauge
	pnl           prometheus.Gauge
	state         prometheus.Gauge
	connects      *prometheus.CounterVec
	backtestRuns  prometheus.Counter
	backtestTime  prometheus.Histogram
	backtestTrade prometheus.Counter
}

// New creates a recorder with a fresh registry that also carries the Go and
// process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		trades: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Settled live trades by result",
		}, []string{"result"}),
		skips: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skips_total",
			Help:      "Control loop passes that did not trade, by reason",
		}, []string{"reason"}),
		profit: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gross_profit_total",
			Help:      "Sum of positive settlement profits",
		}),
		stake: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_stake",
			Help:      "Stake of the last settled trade",
		}),
		pnl: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_pnl",
			Help:      "Cumulative profit/loss of the live session",
		}),
		state: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_state",
			Help:      "0 disconnected, 1 connecting, 2 ready, 3 awaiting settlement, 4 paused, 5 terminated",
		}),
		connects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Venue connection attempts by outcome",
		}, []string{"outcome"}),
		backtestRuns: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backtest_runs_total",
			Help:      "Completed backtest runs",
		}),
		backtestTime: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backtest_duration_seconds",
			Help:      "Wall time of a backtest run",
			Buckets:   prometheus.DefBuckets,
		}),
		backtestTrade: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backtest_trades_total",
			Help:      "Trades realized across backtest runs",
		}),
	}
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) TradeSettled(win bool, profit, stake float64) {
	result := "loss"
	if win {
		result = "win"
	}
	r.trades.WithLabelValues(result).Inc()
	if profit > 0 {
		r.profit.Add(profit)
	}
	r.stake.Set(stake)
}

func (r *Recorder) TradeSkipped(reason string) {
	r.skips.WithLabelValues(reason).Inc()
}

func (r *Recorder) SessionState(s domain.SessionState) {
	r.state.Set(float64(s.Ordinal()))
}

func (r *Recorder) SessionPnL(pnl float64) {
	r.pnl.Set(pnl)
}

func (r *Recorder) ConnectAttempt(outcome string) {
	r.connects.WithLabelValues(outcome).Inc()
}

func (r *Recorder) BacktestRun(trades int, elapsed time.Duration) {
	r.backtestRuns.Inc()
	r.backtestTrade.Add(float64(trades))
	r.backtestTime.Observe(elapsed.Seconds())
}
