package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/digitbot/config"
	"github.com/alejandrodnm/digitbot/internal/adapters/notify"
	"github.com/alejandrodnm/digitbot/internal/adapters/storage"
	"github.com/alejandrodnm/digitbot/internal/application/engine"
	"github.com/alejandrodnm/digitbot/internal/metrics"
	"gopkg.in/natefinch/lumberjack.v2"
)

type options struct {
	configPath string
	backtest   bool
	sweep      bool
	live       bool
	analyze    bool
	history    bool
	paper      bool
	seed       uint64
	dataPath   string
	digits     string
	synthetic  int
	fromDB     int
	asJSON     bool
	noSave     bool
	keepAlive  bool
	verbose    bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "config/config.yaml", "path to config file")
	flag.BoolVar(&o.backtest, "backtest", false, "replay a digit series through the simulator")
	flag.BoolVar(&o.sweep, "sweep", false, "backtest every sweep_families x sweep_confidences combination")
	flag.BoolVar(&o.live, "live", false, "run the live trading session")
	flag.BoolVar(&o.analyze, "analyze", false, "fetch the market once and print the analysis")
	flag.BoolVar(&o.history, "history", false, "list saved backtests and sessions")
	flag.BoolVar(&o.paper, "paper", false, "use the simulated venue instead of the real API")
	flag.Uint64Var(&o.seed, "seed", 1, "random walk seed of the simulated venue")
	flag.StringVar(&o.dataPath, "data", "", "CSV file with a digit or price column (backtest)")
	flag.StringVar(&o.digits, "digits", "", "inline digit series, e.g. 0527913 (backtest)")
	flag.IntVar(&o.synthetic, "synthetic", 0, "generate N ticks with the simulated venue (backtest)")
	flag.IntVar(&o.fromDB, "from-db", 0, "use the newest N stored digits of trading.market (backtest)")
	flag.BoolVar(&o.asJSON, "json", false, "print results as JSON")
	flag.BoolVar(&o.noSave, "no-save", false, "do not persist backtest results")
	flag.BoolVar(&o.keepAlive, "keep-alive", false, "keep the live loop running after target/stop pauses")
	flag.BoolVar(&o.verbose, "verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(o.configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", o.configPath)
		os.Exit(1)
	}

	if o.verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	// keep stdout clean for JSON output
	var logOut io.Writer = os.Stdout
	if o.asJSON {
		logOut = os.Stderr
	}
	setupLogger(cfg.Log, logOut)

	slog.Info("digitbot starting",
		"config", o.configPath,
		"market", cfg.Trading.Market,
		"backtest", o.backtest || o.sweep,
		"live", o.live,
		"analyze", o.analyze,
		"paper", o.paper,
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.NewConsole(o.verbose)

	var recorder engine.Recorder = engine.NopRecorder{}
	if cfg.Metrics.Enabled {
		rec := metrics.New()
		recorder = rec
		srv := serveMetrics(cfg.Metrics.Addr, rec.Handler())
		defer srv.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := &app{cfg: cfg, opts: o, store: store, notifier: notifier, recorder: recorder}

	switch {
	case o.backtest || o.sweep:
		err = app.runBacktest(ctx)
	case o.live:
		err = app.runLive(ctx)
	case o.analyze:
		err = app.runAnalyze(ctx)
	case o.history:
		err = app.runHistory(ctx)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("digitbot exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("digitbot stopped cleanly")
}

// app carries the wiring shared by the sub-commands.
type app struct {
	cfg      *config.Config
	opts     options
	store    *storage.SQLiteStorage
	notifier *notify.Console
	recorder engine.Recorder
}

func serveMetrics(addr string, h http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("metrics: listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics: server failed", "err", err)
		}
	}()
	return srv
}

func setupLogger(cfg config.LogConfig, out io.Writer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if cfg.File != "" {
		out = io.MultiWriter(out, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	slog.SetDefault(slog.New(handler))
}
