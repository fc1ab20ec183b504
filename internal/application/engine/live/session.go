// Package live drives one trading session against a venue: connection
// lifecycle, data refresh, trade submission, settlement and pause handling.
// A Session owns its martingale state; sessions share nothing.
package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/digitbot/internal/analysis"
	"github.com/alejandrodnm/digitbot/internal/application/engine"
	"github.com/alejandrodnm/digitbot/internal/domain"
	"github.com/alejandrodnm/digitbot/internal/ports"
	"github.com/alejandrodnm/digitbot/internal/strategy"
	"github.com/google/uuid"
)

const (
	defaultMaxAttempts   = 3
	defaultBackoffBase   = time.Second
	defaultPingTimeout   = 2 * time.Second
	defaultPollInterval  = 100 * time.Millisecond
	defaultSettleTimeout = time.Minute
	defaultCacheTTL      = 10 * time.Second
	defaultStepInterval  = 5 * time.Second
)

var (
	// ErrTerminated is returned by operations on a closed session.
	ErrTerminated = errors.New("live: session terminated")

	// ErrInvalidTransition is returned when an operation is not allowed in
	// the current state.
	ErrInvalidTransition = errors.New("live: invalid state transition")
)

// Config holds the session parameters and the timing of the control loop.
type Config struct {
	Session     domain.SessionConfig
	MaxAttempts int
	// BackoffBase doubles after every failed attempt; 0 retries immediately.
	BackoffBase   time.Duration
	PingTimeout   time.Duration
	PollInterval  time.Duration
	SettleTimeout time.Duration
	CacheTTL      time.Duration
	StepInterval  time.Duration
	// StopOnLimit makes Run return once the target profit or the stop loss
	// paused the session.
	StopOnLimit bool
}

func (c *Config) setDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.BackoffBase < 0 {
		c.BackoffBase = defaultBackoffBase
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = defaultPingTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.SettleTimeout <= 0 {
		c.SettleTimeout = defaultSettleTimeout
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
	if c.StepInterval <= 0 {
		c.StepInterval = defaultStepInterval
	}
	if c.Session.Currency == "" {
		c.Session.Currency = domain.DefaultCurrency
	}
}

// DefaultConfig wraps a session config with the default timings.
func DefaultConfig(sc domain.SessionConfig) Config {
	c := Config{Session: sc, BackoffBase: defaultBackoffBase}
	c.setDefaults()
	return c
}

// Deps are the collaborators of a session. Only Venue is required.
type Deps struct {
	Venue      ports.Venue
	Sentiment  ports.SentimentSource
	Store      ports.SessionStore
	Notifier   ports.Notifier
	Recorder   engine.Recorder
	Predictors strategy.Registry
	Now        func() time.Time
}

// Session is the live trading state machine.
type Session struct {
	id        string
	cfg       Config
	venue     ports.Venue
	sentiment ports.SentimentSource
	store     ports.SessionStore
	notifier  ports.Notifier
	recorder  engine.Recorder
	now       func() time.Time

	engine *strategy.Engine
	stakes *strategy.StakeController
	cache  *tickCache

	// stepMu serializes the control loop; mu guards the fields below.
	stepMu sync.Mutex

	mu            sync.Mutex
	state         domain.SessionState
	pauseReason   domain.PauseReason
	breakAfterWin bool
	inFlight      bool
	account       domain.Account
	window        *domain.DigitWindow
	wins          int
	losses        int
	startedAt     time.Time
	endedAt       *time.Time

	// venue release deferred by Close until the in-flight contract is booked
	releasePending bool
}

// New validates the configuration and creates a Disconnected session.
func New(cfg Config, deps Deps) (*Session, error) {
	cfg.setDefaults()
	if err := cfg.Session.Validate(); err != nil {
		return nil, fmt.Errorf("live.New: %w", err)
	}
	if deps.Venue == nil {
		return nil, fmt.Errorf("live.New: venue is required: %w", domain.ErrConfiguration)
	}
	reg := deps.Predictors
	if reg == nil {
		reg = strategy.DefaultRegistry()
	}
	pred, err := reg.Resolve(cfg.Session.Predictor)
	if err != nil {
		return nil, fmt.Errorf("live.New: %w", err)
	}
	if deps.Recorder == nil {
		deps.Recorder = engine.NopRecorder{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	s := &Session{
		id:        uuid.New().String(),
		cfg:       cfg,
		venue:     deps.Venue,
		sentiment: deps.Sentiment,
		store:     deps.Store,
		notifier:  deps.Notifier,
		recorder:  deps.Recorder,
		now:       deps.Now,
		engine:    strategy.NewEngine(pred),
		stakes: strategy.NewStakeController(cfg.Session.StakeAmount, cfg.Session.MartingaleStart,
			cfg.Session.Limits(), true),
		cache:     newTickCache(cfg.CacheTTL, deps.Now),
		state:     domain.StateDisconnected,
		window:    domain.NewDigitWindow(cfg.Session.HistoryCount),
		startedAt: deps.Now().UTC(),
	}
	s.recorder.SessionState(s.state)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// setStateLocked moves to a new state; s.mu must be held.
func (s *Session) setStateLocked(st domain.SessionState) {
	if s.state == st {
		return
	}
	slog.Debug("live: state change", "session", s.id, "from", s.state, "to", st)
	s.state = st
	s.recorder.SessionState(st)
}

func (s *Session) setState(st domain.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setStateLocked(st)
}

// Pause stops trading before the next submission. A trade already awaiting
// settlement still runs to completion.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case domain.StatePaused:
		return nil
	case domain.StateReady, domain.StateAwaitingSettlement:
		s.pauseLocked(domain.PauseUser)
		return nil
	case domain.StateTerminated:
		return ErrTerminated
	}
	return fmt.Errorf("live.Pause: from %s: %w", s.state, ErrInvalidTransition)
}

func (s *Session) pauseLocked(reason domain.PauseReason) {
	s.pauseReason = reason
	s.setStateLocked(domain.StatePaused)
	slog.Info("live: trading paused", "session", s.id, "reason", reason)
}

// Resume leaves Paused. If a settlement is still in flight the session goes
// back to AwaitingSettlement.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case domain.StatePaused:
	case domain.StateTerminated:
		return ErrTerminated
	default:
		return fmt.Errorf("live.Resume: from %s: %w", s.state, ErrInvalidTransition)
	}
	s.pauseReason = domain.PauseNone
	if s.inFlight {
		s.setStateLocked(domain.StateAwaitingSettlement)
	} else {
		s.setStateLocked(domain.StateReady)
	}
	slog.Info("live: trading resumed", "session", s.id)
	return nil
}

// SetBreakAfterWin makes the next winning settlement pause the session.
// The flag clears itself once it fires.
func (s *Session) SetBreakAfterWin(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breakAfterWin = on
}

// Close terminates the session from any state and releases the venue. When a
// contract is awaiting settlement the venue stays open until the step that
// bought it has booked the result; that step releases it.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.state == domain.StateTerminated {
		s.mu.Unlock()
		return nil
	}
	s.setStateLocked(domain.StateTerminated)
	ended := s.now().UTC()
	s.endedAt = &ended
	deferred := s.inFlight
	s.releasePending = deferred
	s.mu.Unlock()

	s.persistSession(ctx)
	if deferred {
		slog.Info("live: session closed, venue released after settlement", "session", s.id)
		return nil
	}
	slog.Info("live: session closed", "session", s.id)
	if err := s.venue.Close(); err != nil {
		return fmt.Errorf("live.Close: %w", err)
	}
	return nil
}

// releaseIfClosed closes the venue when Close ran while a contract was in flight.
func (s *Session) releaseIfClosed() {
	s.mu.Lock()
	pending := s.releasePending
	s.releasePending = false
	s.mu.Unlock()
	if !pending {
		return
	}
	if err := s.venue.Close(); err != nil {
		slog.Warn("live: venue close failed", "session", s.id, "err", err)
	}
}

// Snapshot returns the caller-facing view of the session.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	st := s.stakes.State()
	return domain.SessionSnapshot{
		ID:              s.id,
		State:           s.state,
		PauseReason:     s.pauseReason,
		Market:          s.cfg.Session.Market,
		LoginID:         s.account.LoginID,
		Balance:         s.account.Balance,
		Currency:        s.account.Currency,
		Wins:            s.wins,
		Losses:          s.losses,
		ProfitLoss:      st.CumulativePnL,
		MartingaleLevel: st.Level,
		BreakAfterWin:   s.breakAfterWin,
		StartedAt:       s.startedAt,
		EndedAt:         s.endedAt,
	}
}

func (s *Session) persistSession(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveSession(context.WithoutCancel(ctx), s.Snapshot()); err != nil {
		slog.Warn("live: save session failed", "session", s.id, "err", err)
	}
}

// Analyze fetches the market and returns the full analysis the decision
// step would see, without trading.
func (s *Session) Analyze(ctx context.Context) (analysis.Report, error) {
	ticks, err := s.fetch(ctx)
	if err != nil {
		return analysis.Report{}, fmt.Errorf("live.Analyze: %w", err)
	}
	digits := domain.DigitsOf(ticks)
	window := analysis.Tail(digits, s.cfg.Session.WindowSize)

	ev, err := s.engine.Evaluate(window, s.cfg.Session.Family)
	if err != nil {
		return analysis.Report{}, fmt.Errorf("live.Analyze: %w", err)
	}
	return analysis.Report{
		Market:          s.cfg.Session.Market,
		LastDigits:      analysis.Tail(digits, analysis.ReportDigits),
		Probabilities:   ev.Probabilities,
		Prediction:      ev.Prediction,
		ModelConfidence: ev.ModelConfidence,
		Threshold:       s.engine.Threshold(s.stakes.WinRate(), digits).Value,
		Indicators:      analysis.Analyze(window),
		GeneratedAt:     s.now().UTC(),
	}, nil
}
