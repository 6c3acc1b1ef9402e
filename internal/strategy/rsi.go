package strategy

import (
	"fmt"
	"math"

	"github.com/SNMiguel/cryptobot/internal/domain"
	"github.com/SNMiguel/cryptobot/internal/indicator"
)

// Compile-time interface check.
var _ Strategy = (*RSIMeanReversion)(nil)

// RSIMeanReversion buys when RSI drops to or below the oversold threshold and
// sells when it reaches the overbought threshold, grading signal strength by
// how far past the threshold the oscillator sits.
type RSIMeanReversion struct {
	Period     int
	Oversold   float64
	Overbought float64
}

// NewRSIMeanReversion creates an RSI mean-reversion strategy.
func NewRSIMeanReversion(period int, oversold, overbought float64) *RSIMeanReversion {
	return &RSIMeanReversion{Period: period, Oversold: oversold, Overbought: overbought}
}

// Name returns "rsi-reversion".
func (s *RSIMeanReversion) Name() string { return "rsi-reversion" }

// Description returns a summary of the mean-reversion rule.
func (s *RSIMeanReversion) Description() string {
	return fmt.Sprintf("RSI(%d) mean reversion, buy <= %.0f, sell >= %.0f",
		s.Period, s.Oversold, s.Overbought)
}

// Parameters returns the RSI period and thresholds.
func (s *RSIMeanReversion) Parameters() map[string]float64 {
	return map[string]float64{
		"period":     float64(s.Period),
		"oversold":   s.Oversold,
		"overbought": s.Overbought,
	}
}

// Validate rejects a non-positive period, thresholds outside (0, 100), and an
// oversold level at or above the overbought level.
func (s *RSIMeanReversion) Validate() error {
	if s.Period <= 0 {
		return fmt.Errorf("%w: period must be positive, got %d",
			domain.ErrInvalidParameters, s.Period)
	}
	if s.Oversold <= 0 || s.Overbought >= 100 {
		return fmt.Errorf("%w: thresholds must sit inside (0, 100), got %.1f/%.1f",
			domain.ErrInvalidParameters, s.Oversold, s.Overbought)
	}
	if s.Oversold >= s.Overbought {
		return fmt.Errorf("%w: oversold %.1f must be below overbought %.1f",
			domain.ErrInvalidParameters, s.Oversold, s.Overbought)
	}
	return nil
}

// GenerateSignals computes the RSI series and emits threshold signals. NaN
// RSI during warm-up forces HOLD.
func (s *RSIMeanReversion) GenerateSignals(bars []domain.Bar) ([]domain.SignaledBar, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: empty bar series", domain.ErrInvalidData)
	}

	rsi := indicator.RSI(closes(bars), s.Period)

	out := holdSeries(bars)
	for i := range bars {
		if math.IsNaN(rsi[i]) {
			continue
		}
		switch {
		case rsi[i] <= s.Oversold:
			out[i].Signal = domain.SignalBuy
			out[i].Strength = clamp((s.Oversold-rsi[i])/s.Oversold, 0, 1)
		case rsi[i] >= s.Overbought:
			out[i].Signal = domain.SignalSell
			out[i].Strength = clamp(-(rsi[i]-s.Overbought)/(100-s.Overbought), -1, 0)
		}
	}
	return out, nil
}
