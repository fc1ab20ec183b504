package strategy

import (
	"math"
	"sync"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// Win-rate bands that select the martingale multiplier base.
const (
	lowWinRate         = 0.4
	highWinRate        = 0.6
	conservativeBase   = 1.5
	aggressiveBase     = 2.0
	defaultBase        = 1.8
	conservativeMinLvl = 2
)

// NextStake sizes the next trade. Level 0 stakes the base. Otherwise the base
// is scaled by a win-rate dependent multiplier, capped at the risk fraction of
// the balance and then floored back at the base.
func NextStake(state domain.MartingaleState, baseStake float64, limits domain.RiskLimits, balance, winRate float64) float64 {
	if state.Level == 0 {
		return baseStake
	}
	stake := baseStake * Multiplier(state.Level, winRate)
	stake = math.Min(stake, balance*limits.MaxRiskFraction)
	return math.Max(stake, baseStake)
}

// Multiplier returns the stake multiplier for a martingale level.
func Multiplier(level int, winRate float64) float64 {
	l := float64(level)
	switch {
	case winRate < lowWinRate && level > conservativeMinLvl:
		return math.Pow(conservativeBase, l)
	case winRate > highWinRate:
		return math.Pow(aggressiveBase, l)
	default:
		return math.Pow(defaultBase, l)
	}
}

// Advance applies a settled outcome. A win resets the sequence; a loss counts
// towards escalation once start consecutive losses are reached, never past
// the maximum level.
func Advance(state domain.MartingaleState, win bool, profit float64, start int, limits domain.RiskLimits) domain.MartingaleState {
	state.CumulativePnL += profit
	if win {
		state.Level = 0
		state.ConsecutiveLosses = 0
		return state
	}
	state.ConsecutiveLosses++
	if state.ConsecutiveLosses >= start && state.Level < limits.MaxMartingaleLevel {
		state.Level++
	}
	if state.Level > limits.MaxMartingaleLevel {
		state.Level = limits.MaxMartingaleLevel
	}
	return state
}

// StakeController owns the martingale state of one trading context.
type StakeController struct {
	mu      sync.Mutex
	state   domain.MartingaleState
	limits  domain.RiskLimits
	start   int
	enabled bool
	wins    int
	losses  int
}

// NewStakeController starts a controller at level 0. With enabled false every
// stake is the base stake.
func NewStakeController(baseStake float64, start int, limits domain.RiskLimits, enabled bool) *StakeController {
	if start < 1 {
		start = 1
	}
	return &StakeController{
		state:   domain.MartingaleState{BaseStake: baseStake},
		limits:  limits,
		start:   start,
		enabled: enabled,
	}
}

// Next returns the stake for the next trade given the current balance.
func (c *StakeController) Next(balance float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return c.state.BaseStake
	}
	return NextStake(c.state, c.state.BaseStake, c.limits, balance, c.winRateLocked())
}

// Record applies a settled trade.
func (c *StakeController) Record(win bool, profit float64) domain.MartingaleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if win {
		c.wins++
	} else {
		c.losses++
	}
	c.state = Advance(c.state, win, profit, c.start, c.limits)
	return c.state
}

// State returns a copy of the martingale state.
func (c *StakeController) State() domain.MartingaleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// WinRate is wins over settled trades, 0.5 before the first settlement.
func (c *StakeController) WinRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.winRateLocked()
}

func (c *StakeController) winRateLocked() float64 {
	total := c.wins + c.losses
	if total == 0 {
		return 0.5
	}
	return float64(c.wins) / float64(total)
}
