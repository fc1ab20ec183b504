package live_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alejandrodnm/digitbot/internal/application/engine/live"
	"github.com/alejandrodnm/digitbot/internal/domain"
)

type fakeVenue struct {
	mu sync.Mutex

	connectErrs  []error
	connectCalls int
	account      domain.Account

	pingErrs []error
	pings    int

	ticks      []domain.Tick
	fetchErr   error
	fetchCalls int

	submitErr error
	submitted []domain.ContractParams
	onSubmit  func()

	pending   int
	profits   []float64
	settleErr error
	polls     int
	// polls made after Close fail like a dropped connection
	failAfterClose bool

	closed int
}

func newFakeVenue(digits ...int) *fakeVenue {
	return &fakeVenue{
		account: domain.Account{LoginID: "CR123", Balance: 1000, Currency: "USD"},
		ticks:   ticksOf(digits...),
	}
}

func ticksOf(digits ...int) []domain.Tick {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]domain.Tick, len(digits))
	for i, d := range digits {
		out[i] = domain.Tick{
			Price: 1000 + float64(d)/100,
			Digit: domain.Digit(d),
			Epoch: base.Add(time.Duration(i) * time.Second),
		}
	}
	return out
}

func repeatDigit(d, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = d
	}
	return out
}

func cycleDigits(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i % 10
	}
	return out
}

func (v *fakeVenue) Connect(context.Context) (domain.Account, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.connectCalls++
	if len(v.connectErrs) > 0 {
		err := v.connectErrs[0]
		v.connectErrs = v.connectErrs[1:]
		if err != nil {
			return domain.Account{}, err
		}
	}
	return v.account, nil
}

func (v *fakeVenue) Ping(context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pings++
	if len(v.pingErrs) > 0 {
		err := v.pingErrs[0]
		v.pingErrs = v.pingErrs[1:]
		return err
	}
	return nil
}

func (v *fakeVenue) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed++
	return nil
}

func (v *fakeVenue) FetchRecentTicks(_ context.Context, _ string, count int) ([]domain.Tick, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fetchCalls++
	if v.fetchErr != nil {
		return nil, v.fetchErr
	}
	ticks := v.ticks
	if len(ticks) > count {
		ticks = ticks[len(ticks)-count:]
	}
	return append([]domain.Tick(nil), ticks...), nil
}

func (v *fakeVenue) Submit(_ context.Context, p domain.ContractParams) (domain.ContractHandle, error) {
	v.mu.Lock()
	hook := v.onSubmit
	if v.submitErr != nil {
		err := v.submitErr
		v.mu.Unlock()
		return domain.ContractHandle{}, err
	}
	v.submitted = append(v.submitted, p)
	id := fmt.Sprintf("c-%d", len(v.submitted))
	v.mu.Unlock()
	if hook != nil {
		hook()
	}
	return domain.ContractHandle{ContractID: id, BuyPrice: p.Amount.InexactFloat64()}, nil
}

func (v *fakeVenue) AwaitSettlement(_ context.Context, h domain.ContractHandle) (domain.Settlement, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.polls++
	if v.failAfterClose && v.closed > 0 {
		return domain.Settlement{}, fmt.Errorf("not connected: %w", domain.ErrConnectivity)
	}
	if v.settleErr != nil {
		return domain.Settlement{}, v.settleErr
	}
	if v.pending > 0 {
		v.pending--
		return domain.Settlement{ContractID: h.ContractID, Status: domain.ContractOpen}, nil
	}
	profit := 0.0
	if len(v.profits) > 0 {
		profit = v.profits[0]
		v.profits = v.profits[1:]
	}
	return domain.Settlement{ContractID: h.ContractID, Status: domain.ContractSold, Profit: profit}, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixedSentiment struct {
	value float64
	err   error
}

func (f fixedSentiment) Sentiment(context.Context) (float64, error) { return f.value, f.err }

type connectRecorder struct {
	mu       sync.Mutex
	outcomes []string
	states   []domain.SessionState
	skips    []string
	settled  int
}

func (r *connectRecorder) TradeSettled(bool, float64, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settled++
}

func (r *connectRecorder) TradeSkipped(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skips = append(r.skips, reason)
}

func (r *connectRecorder) SessionState(s domain.SessionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *connectRecorder) SessionPnL(float64) {}

func (r *connectRecorder) ConnectAttempt(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *connectRecorder) BacktestRun(int, time.Duration) {}

func testConfig() live.Config {
	sc := domain.DefaultSessionConfig()
	sc.WindowSize = 20
	sc.HistoryCount = 20
	sc.TargetProfit = 1000
	sc.StopLoss = 1000
	return live.Config{
		Session:       sc,
		PollInterval:  time.Millisecond,
		PingTimeout:   50 * time.Millisecond,
		SettleTimeout: time.Second,
		CacheTTL:      10 * time.Second,
		StepInterval:  time.Millisecond,
	}
}
