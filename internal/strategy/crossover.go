package strategy

import (
	"fmt"
	"math"

	"github.com/SNMiguel/cryptobot/internal/domain"
	"github.com/SNMiguel/cryptobot/internal/indicator"
)

// Compile-time interface check.
var _ Strategy = (*MACrossover)(nil)

// MACrossover emits BUY when the fast moving average crosses above the slow
// one and SELL when it crosses back below. Ties on the prior bar count as
// "not yet crossed", so the signal fires on the first bar where the fast
// average is strictly through the slow one.
type MACrossover struct {
	FastPeriod int
	SlowPeriod int
	MAType     string // "sma" or "ema"
}

// NewMACrossover creates a moving-average crossover strategy.
func NewMACrossover(fast, slow int, maType string) *MACrossover {
	if maType == "" {
		maType = "sma"
	}
	return &MACrossover{FastPeriod: fast, SlowPeriod: slow, MAType: maType}
}

// Name returns "ma-crossover".
func (s *MACrossover) Name() string { return "ma-crossover" }

// Description returns a summary of the crossover rule.
func (s *MACrossover) Description() string {
	return fmt.Sprintf("%s(%d)/%s(%d) crossover", s.MAType, s.FastPeriod, s.MAType, s.SlowPeriod)
}

// Parameters returns the fast and slow periods.
func (s *MACrossover) Parameters() map[string]float64 {
	return map[string]float64{
		"fast_period": float64(s.FastPeriod),
		"slow_period": float64(s.SlowPeriod),
	}
}

// Validate rejects non-positive periods, a fast period at or above the slow
// period, and unknown MA types.
func (s *MACrossover) Validate() error {
	if s.FastPeriod <= 0 || s.SlowPeriod <= 0 {
		return fmt.Errorf("%w: periods must be positive, got fast=%d slow=%d",
			domain.ErrInvalidParameters, s.FastPeriod, s.SlowPeriod)
	}
	if s.FastPeriod >= s.SlowPeriod {
		return fmt.Errorf("%w: fast period %d must be below slow period %d",
			domain.ErrInvalidParameters, s.FastPeriod, s.SlowPeriod)
	}
	if s.MAType != "sma" && s.MAType != "ema" {
		return fmt.Errorf("%w: unknown ma type %q", domain.ErrInvalidParameters, s.MAType)
	}
	return nil
}

// GenerateSignals computes the fast and slow averages and emits crossover
// signals. Any NaN average at i or i-1 forces HOLD, and index 0 is always
// HOLD since there is no prior bar to compare.
func (s *MACrossover) GenerateSignals(bars []domain.Bar) ([]domain.SignaledBar, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: empty bar series", domain.ErrInvalidData)
	}

	prices := closes(bars)
	var fast, slow []float64
	switch s.MAType {
	case "ema":
		fast = indicator.EMA(prices, s.FastPeriod)
		slow = indicator.EMA(prices, s.SlowPeriod)
	default:
		fast = indicator.SMA(prices, s.FastPeriod)
		slow = indicator.SMA(prices, s.SlowPeriod)
	}

	out := holdSeries(bars)
	for i := 1; i < len(bars); i++ {
		if math.IsNaN(fast[i]) || math.IsNaN(slow[i]) ||
			math.IsNaN(fast[i-1]) || math.IsNaN(slow[i-1]) {
			continue
		}
		switch {
		case fast[i-1] <= slow[i-1] && fast[i] > slow[i]:
			out[i].Signal = domain.SignalBuy
			out[i].Strength = crossStrength(fast[i], slow[i])
		case fast[i-1] >= slow[i-1] && fast[i] < slow[i]:
			out[i].Signal = domain.SignalSell
			out[i].Strength = crossStrength(fast[i], slow[i])
		}
	}
	return out, nil
}

// crossStrength grades a crossover by the relative separation of the two
// averages, clamped to [-1, 1]. Positive when fast is above slow.
func crossStrength(fast, slow float64) float64 {
	if slow == 0 {
		return 0
	}
	return clamp((fast-slow)/slow, -1, 1)
}
