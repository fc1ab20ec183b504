// Package strategy holds the pure decision algorithms shared by the backtest
// simulator and the live session: digit predictors, stake sizing, the
// adaptive confidence threshold and the decision engine.
package strategy

import (
	"fmt"

	"github.com/alejandrodnm/digitbot/internal/domain"
)

// Predictor guesses the next digit of a window. The decision engine and the
// live session only depend on this interface, so strategies can be swapped
// without touching callers.
type Predictor interface {
	// Name is the registry key of the strategy.
	Name() string

	// Predict returns the expected next digit. It must be total: an empty
	// window yields a fixed default.
	Predict(window []domain.Digit) domain.Digit
}

const (
	ModeName    = "mode"
	PatternName = "pattern"
)

// Registry holds the available predictors by name.
type Registry map[string]Predictor

// NewRegistry creates an empty registry.
func NewRegistry() Registry {
	return make(Registry)
}

// DefaultRegistry registers the mode and pattern predictors.
func DefaultRegistry() Registry {
	r := NewRegistry()
	r.Register(ModePredictor{})
	r.Register(PatternPredictor{})
	return r
}

// Register adds a predictor, replacing any with the same name.
func (r Registry) Register(p Predictor) {
	r[p.Name()] = p
}

// Get returns the predictor by name.
func (r Registry) Get(name string) (Predictor, bool) {
	p, ok := r[name]
	return p, ok
}

// Resolve looks a predictor up by name; an empty name selects the mode
// predictor.
func (r Registry) Resolve(name string) (Predictor, error) {
	if name == "" {
		name = ModeName
	}
	p, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("strategy.Resolve: unknown predictor %q: %w", name, domain.ErrConfiguration)
	}
	return p, nil
}
