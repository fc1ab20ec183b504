package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// Connect outcomes reported to the recorder.
const (
	connectSuccess = "success"
	connectFailure = "failure"
	connectAuth    = "auth"
)

// Connect establishes an authorized connection with bounded retry: up to
// MaxAttempts tries, the delay doubling from BackoffBase. An authorization
// problem aborts at once and is never retried.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case domain.StateTerminated:
		s.mu.Unlock()
		return ErrTerminated
	case domain.StateDisconnected:
		s.setStateLocked(domain.StateConnecting)
	default:
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		acct, err := s.venue.Connect(ctx)
		if err == nil {
			s.recorder.ConnectAttempt(connectSuccess)
			s.mu.Lock()
			s.account = acct
			if s.state == domain.StateConnecting {
				s.setStateLocked(domain.StateReady)
			}
			s.mu.Unlock()
			slog.Info("live: connected", "session", s.id, "login_id", acct.LoginID, "balance", acct.Balance)
			s.persistSession(ctx)
			return nil
		}

		if isAuthError(err) {
			s.recorder.ConnectAttempt(connectAuth)
			s.disconnected()
			slog.Error("live: invalid credentials, not retrying", "session", s.id, "err", err)
			if !errors.Is(err, domain.ErrAuthorization) {
				err = fmt.Errorf("%w: %w", domain.ErrAuthorization, err)
			}
			return fmt.Errorf("live.Connect: %w", err)
		}

		s.recorder.ConnectAttempt(connectFailure)
		lastErr = err
		slog.Warn("live: connection attempt failed", "session", s.id, "attempt", attempt+1, "err", err)

		if attempt < s.cfg.MaxAttempts-1 {
			delay := time.Duration(math.Pow(2, float64(attempt))) * s.cfg.BackoffBase
			if err := sleep(ctx, delay); err != nil {
				s.disconnected()
				return fmt.Errorf("live.Connect: %w", err)
			}
		}
	}

	s.disconnected()
	slog.Error("live: connection failed", "session", s.id, "attempts", s.cfg.MaxAttempts)
	if errors.Is(lastErr, domain.ErrConnectivity) {
		return fmt.Errorf("live.Connect: %d attempts: %w", s.cfg.MaxAttempts, lastErr)
	}
	return fmt.Errorf("live.Connect: %d attempts: %w: %w", s.cfg.MaxAttempts, domain.ErrConnectivity, lastErr)
}

func (s *Session) disconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.StateConnecting {
		s.setStateLocked(domain.StateDisconnected)
	}
}

// ensureAlive runs the liveness probe and reconnects on failure. A probe
// timeout counts as a lost connection, not as a fatal error.
func (s *Session) ensureAlive(ctx context.Context) error {
	if s.State() == domain.StateDisconnected {
		return s.Connect(ctx)
	}
	pctx, cancel := context.WithTimeout(ctx, s.cfg.PingTimeout)
	err := s.venue.Ping(pctx)
	cancel()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	slog.Info("live: connection lost, reconnecting", "session", s.id, "err", err)

	s.mu.Lock()
	if s.state == domain.StateReady {
		s.setStateLocked(domain.StateDisconnected)
	}
	reconnect := s.state == domain.StateDisconnected
	s.mu.Unlock()
	if !reconnect {
		return nil
	}
	return s.Connect(ctx)
}

// isAuthError reports credential failures: the sentinel, or a venue message
// mentioning the token.
func isAuthError(err error) bool {
	if errors.Is(err, domain.ErrAuthorization) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "token")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
