package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/digitbot/internal/adapters/deriv"
	"github.com/alejandrodnm/digitbot/internal/adapters/paper"
	"github.com/alejandrodnm/digitbot/internal/adapters/sentiment"
	"github.com/alejandrodnm/digitbot/internal/application/engine/live"
	"github.com/alejandrodnm/digitbot/internal/domain"
	"github.com/alejandrodnm/digitbot/internal/ports"
)

const closeTimeout = 10 * time.Second

func (a *app) newVenue() ports.Venue {
	if a.opts.paper {
		return paper.New(paper.Config{Seed: a.opts.seed, Currency: domain.DefaultCurrency})
	}
	return deriv.NewClient(deriv.Config{
		URL:        a.cfg.API.WSURL,
		AppID:      a.cfg.API.AppID,
		Token:      a.cfg.API.Token,
		RatePerSec: a.cfg.API.RatePerSec,
	})
}

func (a *app) newSession() (*live.Session, error) {
	cfg := live.DefaultConfig(a.cfg.Session())
	cfg.MaxAttempts = a.cfg.Trading.MaxConnectAttempts
	cfg.PollInterval = a.cfg.PollInterval()
	cfg.CacheTTL = a.cfg.CacheTTL()
	cfg.StepInterval = a.cfg.StepInterval()
	cfg.StopOnLimit = !a.opts.keepAlive

	deps := live.Deps{
		Venue:    a.newVenue(),
		Store:    a.store,
		Notifier: a.notifier,
		Recorder: a.recorder,
	}
	if a.cfg.Sentiment.URL != "" {
		src, err := sentiment.New(sentiment.Config{URL: a.cfg.Sentiment.URL, Timeout: a.cfg.SentimentTimeout()})
		if err != nil {
			return nil, fmt.Errorf("live: %w", err)
		}
		deps.Sentiment = src
	}
	return live.New(cfg, deps)
}

func (a *app) runLive(ctx context.Context) error {
	sess, err := a.newSession()
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if err := sess.Close(closeCtx); err != nil {
			slog.Warn("live: close failed", "err", err)
		}
		a.notifier.NotifySession(closeCtx, sess.Snapshot())
	}()

	if err := sess.Connect(ctx); err != nil {
		return err
	}
	a.notifier.NotifySession(ctx, sess.Snapshot())

	go a.handleControlSignals(ctx, sess)

	return sess.Run(ctx)
}

// handleControlSignals maps SIGUSR1 to pause/resume and SIGUSR2 to the
// break-after-win toggle.
func (a *app) handleControlSignals(ctx context.Context, sess *live.Session) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-ch:
			switch sig {
			case syscall.SIGUSR1:
				var err error
				if sess.State() == domain.StatePaused {
					err = sess.Resume()
				} else {
					err = sess.Pause()
				}
				if err != nil {
					slog.Warn("live: pause toggle rejected", "state", sess.State(), "err", err)
				}
			case syscall.SIGUSR2:
				on := !sess.Snapshot().BreakAfterWin
				sess.SetBreakAfterWin(on)
				slog.Info("live: break after win", "enabled", on)
			}
			a.notifier.NotifySession(ctx, sess.Snapshot())
		}
	}
}
