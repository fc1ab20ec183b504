package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// StepKind tells a trade apart from each kind of no-trade outcome.
type StepKind string

const (
	StepTraded               StepKind = "traded"
	StepSkippedLowConfidence StepKind = "skipped_low_confidence"
	StepSkippedPaused        StepKind = "skipped_paused"
	StepSkippedNoData        StepKind = "skipped_no_data"
	StepFailed               StepKind = "failed"
)

// StepResult is the outcome of one pass of the control loop. Skips are not
// errors; Err is only informative for them.
type StepResult struct {
	Kind     StepKind
	State    domain.SessionState
	Decision *domain.Decision
	Trade    *domain.LiveTrade
	Err      error
}

// Step runs one connect, fetch, decide, execute, settle and adapt pass.
// Skipped steps return a nil error; failed steps return the cause, wrapped
// in the domain taxonomy.
func (s *Session) Step(ctx context.Context) (StepResult, error) {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()

	switch s.State() {
	case domain.StateTerminated:
		return s.result(StepFailed, nil, nil, ErrTerminated), ErrTerminated
	case domain.StatePaused:
		return s.skip(StepSkippedPaused, nil, nil), nil
	}

	if err := s.ensureAlive(ctx); err != nil {
		return s.fail(err)
	}

	ticks, err := s.fetch(ctx)
	if err != nil {
		return s.skip(StepSkippedNoData, nil, err), nil
	}

	s.mu.Lock()
	if err := s.window.Replace(domain.DigitsOf(ticks)); err != nil {
		s.mu.Unlock()
		return s.fail(fmt.Errorf("live.Step: %w", err))
	}
	window := s.window.Last(s.cfg.Session.WindowSize)
	recent := s.window.Digits()
	balance := s.account.Balance
	s.mu.Unlock()

	sc := s.cfg.Session
	stake := s.stakes.Next(balance)
	dec, ev, err := s.engine.DecideBlended(window, recent, sc.Family, s.stakes.WinRate(), stake, s.readSentiment(ctx))
	if err != nil {
		return s.fail(fmt.Errorf("live.Step: %w", err))
	}
	slog.Debug("live: decision",
		"session", s.id,
		"contract", dec.Trade.Contract.Kind,
		"barrier", dec.Trade.Contract.Barrier,
		"probability", ev.Probability,
		"model", ev.ModelConfidence,
		"confidence", dec.Trade.Confidence,
		"threshold", dec.Threshold,
		"stake", stake,
	)
	if !dec.Actionable() {
		slog.Info("live: skipping trade, confidence too low",
			"confidence", fmt.Sprintf("%.2f", dec.Trade.Confidence),
			"threshold", fmt.Sprintf("%.2f", dec.Threshold),
		)
		return s.skip(StepSkippedLowConfidence, &dec, nil), nil
	}

	// Last decision point before submission: a pause issued meanwhile wins.
	s.mu.Lock()
	if s.state != domain.StateReady {
		st := s.state
		s.mu.Unlock()
		if st == domain.StateTerminated {
			return s.result(StepFailed, &dec, nil, ErrTerminated), ErrTerminated
		}
		return s.skip(StepSkippedPaused, &dec, nil), nil
	}
	s.setStateLocked(domain.StateAwaitingSettlement)
	s.inFlight = true
	s.mu.Unlock()
	defer s.releaseIfClosed()

	handle, err := s.venue.Submit(ctx, dec.Trade.Contract.Params(sc.Market, stake, sc.Currency))
	if err != nil {
		s.abortInFlight()
		return s.failWith(&dec, gatewayErr("live.Step: submit", err))
	}
	slog.Info("live: contract bought", "session", s.id, "contract_id", handle.ContractID, "stake", stake)

	settlement, err := s.awaitSettlement(ctx, handle)
	if err != nil {
		s.abortInFlight()
		return s.failWith(&dec, err)
	}

	trade := s.applySettlement(ctx, dec, handle, settlement)
	return s.result(StepTraded, &dec, &trade, nil), nil
}

// Run steps until ctx is cancelled, the session is terminated or the
// credentials are rejected. Transient failures are logged and retried on
// the next step. With StopOnLimit it also returns after a risk limit pause.
func (s *Session) Run(ctx context.Context) error {
	for {
		res, err := s.Step(ctx)
		switch {
		case errors.Is(err, ErrTerminated):
			return nil
		case errors.Is(err, domain.ErrAuthorization):
			return fmt.Errorf("live.Run: %w", err)
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			slog.Warn("live: step failed", "session", s.id, "err", err)
		}
		if res.Kind == StepTraded && s.notifier != nil {
			if err := s.notifier.NotifySession(ctx, s.Snapshot()); err != nil {
				slog.Debug("live: notify session failed", "err", err)
			}
		}
		if s.cfg.StopOnLimit && s.limitReached() {
			slog.Info("live: risk limit reached, stopping", "session", s.id)
			return nil
		}
		if err := sleep(ctx, s.cfg.StepInterval); err != nil {
			return err
		}
	}
}

func (s *Session) limitReached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == domain.StatePaused &&
		(s.pauseReason == domain.PauseTargetProfit || s.pauseReason == domain.PauseStopLoss)
}

func (s *Session) readSentiment(ctx context.Context) *float64 {
	if s.sentiment == nil {
		return nil
	}
	v, err := s.sentiment.Sentiment(ctx)
	if err != nil {
		slog.Debug("live: sentiment unavailable, using neutral", "err", err)
		return nil
	}
	return &v
}

// abortInFlight returns to Ready after a trade that was not executed.
func (s *Session) abortInFlight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if s.state == domain.StateAwaitingSettlement {
		s.setStateLocked(domain.StateReady)
	}
}

func (s *Session) skip(kind StepKind, dec *domain.Decision, cause error) StepResult {
	s.recorder.TradeSkipped(string(kind))
	return s.result(kind, dec, nil, cause)
}

func (s *Session) fail(err error) (StepResult, error) {
	return s.failWith(nil, err)
}

func (s *Session) failWith(dec *domain.Decision, err error) (StepResult, error) {
	s.recorder.TradeSkipped(string(StepFailed))
	return s.result(StepFailed, dec, nil, err), err
}

func (s *Session) result(kind StepKind, dec *domain.Decision, trade *domain.LiveTrade, err error) StepResult {
	return StepResult{Kind: kind, State: s.State(), Decision: dec, Trade: trade, Err: err}
}
