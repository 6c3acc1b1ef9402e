// Package strategy defines the Strategy interface for signal-generating
// trading strategies and provides a Registry for managing multiple strategy
// implementations.
package strategy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SNMiguel/cryptobot/internal/domain"
)

// Strategy maps a price series to a per-bar signal series. Implementations
// must be deterministic and side-effect-free: the same bars and parameters
// always produce the same signals.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Description returns a short human-readable summary.
	Description() string

	// Parameters returns the strategy's parameter values, keyed by name.
	Parameters() map[string]float64

	// Validate reports whether the parameters are well-formed. Malformed
	// parameters wrap domain.ErrInvalidParameters.
	Validate() error

	// GenerateSignals annotates every bar with a BUY/SELL/HOLD signal and
	// a strength in [-1, 1]. An empty series is rejected with
	// domain.ErrInvalidData; a series too short for the strategy's
	// indicator warm-up degrades to all-HOLD rather than failing.
	GenerateSignals(bars []domain.Bar) ([]domain.SignaledBar, error)
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. The second return value indicates whether
// the strategy was found.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatParams flattens a parameter map into a stable "key=value" string,
// sorted by key, for logs and persisted results.
func FormatParams(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, params[k])
	}
	return strings.Join(parts, " ")
}

// closes extracts the close series from bars.
func closes(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// holdSeries annotates every bar with HOLD and zero strength.
func holdSeries(bars []domain.Bar) []domain.SignaledBar {
	out := make([]domain.SignaledBar, len(bars))
	for i, b := range bars {
		out[i] = domain.SignaledBar{Bar: b, Signal: domain.SignalHold}
	}
	return out
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
