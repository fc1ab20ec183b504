// Package paper is a simulated digit venue. Prices follow a seeded random
// walk so sessions against it are reproducible.
package paper

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

const (
	defaultStartPrice   = 1000.0
	defaultVolatility   = 0.35
	defaultPipDecimals  = 2
	defaultBalance      = 10000.0
	defaultTicksPerPoll = 1
	loginID             = "PAPER"
)

// Config configures the simulated venue.
type Config struct {
	Seed           uint64
	StartPrice     float64
	Volatility     float64
	PipDecimals    int
	InitialBalance float64
	Currency       string
	// TicksPerFetch new ticks are generated before every history request.
	TicksPerFetch int
	// Epoch of the first generated tick; ticks are one second apart.
	Start time.Time
}

type openContract struct {
	params   domain.ContractParams
	contract domain.Contract
	stake    float64
	// index of the tick that settles the contract
	exitAt int
}

// Venue implements ports.Venue without any network.
type Venue struct {
	cfg Config

	mu        sync.Mutex
	rng       *rand.Rand
	price     float64
	ticks     []domain.Tick
	balance   float64
	connected bool
	nextID    int
	open      map[string]*openContract
}

// New creates a venue with an empty tick history.
func New(cfg Config) *Venue {
	if cfg.StartPrice <= 0 {
		cfg.StartPrice = defaultStartPrice
	}
	if cfg.Volatility <= 0 {
		cfg.Volatility = defaultVolatility
	}
	if cfg.PipDecimals <= 0 {
		cfg.PipDecimals = defaultPipDecimals
	}
	if cfg.InitialBalance <= 0 {
		cfg.InitialBalance = defaultBalance
	}
	if cfg.Currency == "" {
		cfg.Currency = domain.DefaultCurrency
	}
	if cfg.TicksPerFetch <= 0 {
		cfg.TicksPerFetch = defaultTicksPerPoll
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Unix(1_700_000_000, 0).UTC()
	}
	return &Venue{
		cfg:     cfg,
		rng:     rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		price:   cfg.StartPrice,
		balance: cfg.InitialBalance,
		open:    make(map[string]*openContract),
	}
}

func (v *Venue) Connect(ctx context.Context) (domain.Account, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.connected = true
	return domain.Account{LoginID: loginID, Balance: v.balance, Currency: v.cfg.Currency}, nil
}

func (v *Venue) Ping(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.connected {
		return fmt.Errorf("paper.Ping: %w", domain.ErrConnectivity)
	}
	return nil
}

func (v *Venue) Close() error {
	v.mu.Lock()
	v.connected = false
	v.mu.Unlock()
	return nil
}

// Balance returns the simulated account balance.
func (v *Venue) Balance() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balance
}

// Generate returns n new ticks without requiring a connection. The backtest
// CLI uses it as a synthetic series source.
func (v *Venue) Generate(n int) []domain.Tick {
	v.mu.Lock()
	defer v.mu.Unlock()
	start := len(v.ticks)
	for range n {
		v.advanceLocked()
	}
	return append([]domain.Tick(nil), v.ticks[start:]...)
}

// FetchRecentTicks first fills the history up to count, then advances the
// walk by TicksPerFetch and returns the newest count ticks.
func (v *Venue) FetchRecentTicks(ctx context.Context, market string, count int) ([]domain.Tick, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.connected {
		return nil, fmt.Errorf("paper.FetchRecentTicks: not connected: %w", domain.ErrConnectivity)
	}
	for len(v.ticks) < count {
		v.advanceLocked()
	}
	for range v.cfg.TicksPerFetch {
		v.advanceLocked()
	}
	return append([]domain.Tick(nil), v.ticks[len(v.ticks)-count:]...), nil
}

// Submit opens a contract settled by the tick Duration ticks ahead.
func (v *Venue) Submit(ctx context.Context, p domain.ContractParams) (domain.ContractHandle, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.connected {
		return domain.ContractHandle{}, fmt.Errorf("paper.Submit: not connected: %w", domain.ErrConnectivity)
	}

	stake := p.Amount.InexactFloat64()
	if stake <= 0 {
		return domain.ContractHandle{}, fmt.Errorf("paper.Submit: stake %.2f: %w", stake, domain.ErrGateway)
	}
	if stake > v.balance {
		return domain.ContractHandle{}, fmt.Errorf("paper.Submit: stake %.2f exceeds balance %.2f: %w",
			stake, v.balance, domain.ErrGateway)
	}
	c := domain.Contract{Kind: p.Kind}
	if p.Barrier != nil {
		c.Barrier = *p.Barrier
	}
	duration := p.Duration
	if duration <= 0 {
		duration = 1
	}

	v.nextID++
	id := strconv.Itoa(v.nextID)
	v.balance -= stake
	v.open[id] = &openContract{params: p, contract: c, stake: stake, exitAt: len(v.ticks) + duration - 1}

	return domain.ContractHandle{ContractID: id, BuyPrice: stake, PurchasedAt: v.nowLocked()}, nil
}

// AwaitSettlement advances the walk one tick per call until the exit tick
// exists, then settles the contract against its digit.
func (v *Venue) AwaitSettlement(ctx context.Context, h domain.ContractHandle) (domain.Settlement, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	oc, ok := v.open[h.ContractID]
	if !ok {
		return domain.Settlement{}, fmt.Errorf("paper.AwaitSettlement: unknown contract %s: %w", h.ContractID, domain.ErrGateway)
	}
	if len(v.ticks) <= oc.exitAt {
		v.advanceLocked()
	}
	if len(v.ticks) <= oc.exitAt {
		return domain.Settlement{ContractID: h.ContractID, Status: domain.ContractOpen}, nil
	}

	exit := v.ticks[oc.exitAt].Digit
	win, profit := oc.contract.Realize(oc.stake, exit)
	status := domain.ContractLost
	if win {
		status = domain.ContractWon
		v.balance += oc.stake + profit
	}
	delete(v.open, h.ContractID)

	slog.Debug("paper: contract settled",
		"contract_id", h.ContractID,
		"kind", oc.params.Kind,
		"exit_digit", exit,
		"profit", profit,
	)
	return domain.Settlement{ContractID: h.ContractID, Status: status, Profit: profit, ExitDigit: &exit}, nil
}

func (v *Venue) advanceLocked() {
	v.price += v.rng.NormFloat64() * v.cfg.Volatility
	if v.price <= 1 {
		v.price = 1 + math.Abs(v.rng.NormFloat64())
	}
	scale := math.Pow(10, float64(v.cfg.PipDecimals))
	price := math.Round(v.price*scale) / scale
	v.ticks = append(v.ticks, domain.Tick{
		Price: price,
		Digit: domain.DigitFromQuote(price, v.cfg.PipDecimals),
		Epoch: v.nowLocked(),
	})
}

func (v *Venue) nowLocked() time.Time {
	return v.cfg.Start.Add(time.Duration(len(v.ticks)) * time.Second)
}
