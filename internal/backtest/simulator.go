// Package backtest turns a signaled bar series into a simulated trade
// ledger, an equity curve, and derived performance metrics, modeling
// commission and slippage as percentage costs on each trade's notional.
package backtest

import (
	"fmt"
	"log/slog"

	"github.com/SNMiguel/cryptobot/internal/domain"
)

// DefaultPositionSizeFraction is the share of available cash spent when a
// BUY executes, leaving a cash buffer against rounding.
const DefaultPositionSizeFraction = 0.95

// Config holds the simulation parameters for one backtest run.
type Config struct {
	InitialCapital       float64
	PositionSizeFraction float64 // defaults to DefaultPositionSizeFraction
	CommissionRate       float64 // fraction of notional per trade
	SlippageRate         float64 // fraction of notional per trade
}

// Result is the serializable output bundle of one backtest run.
type Result struct {
	Ledger         []domain.Trade
	EquityCurve    []domain.EquityPoint
	Report         domain.PerformanceReport
	Costs          domain.TransactionCosts
	InitialCapital float64
	FinalValue     float64
}

// Simulator walks a signaled series once, holding at most one open position
// at a time. The ledger it emits strictly alternates BUY, SELL, BUY, ...
// possibly ending on an unmatched BUY.
type Simulator struct {
	cfg Config
	log *slog.Logger
}

// NewSimulator creates a Simulator. A zero or negative PositionSizeFraction
// falls back to the default; a nil logger falls back to slog.Default.
func NewSimulator(cfg Config, log *slog.Logger) *Simulator {
	if cfg.PositionSizeFraction <= 0 {
		cfg.PositionSizeFraction = DefaultPositionSizeFraction
	}
	if log == nil {
		log = slog.Default()
	}
	return &Simulator{cfg: cfg, log: log.With("component", "simulator")}
}

// Run executes the state machine over bars in order. Identical input and
// configuration always produce an identical ledger.
//
// Transitions per bar: FLAT + BUY spends PositionSizeFraction of cash at the
// close; LONG + SELL liquidates the whole position at the close; everything
// else is a no-op. A position still open after the last bar is not closed;
// the final valuation marks it to market at the last close.
func (s *Simulator) Run(bars []domain.SignaledBar) (*Result, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: empty signaled series", domain.ErrInvalidData)
	}

	cash := s.cfg.InitialCapital
	quantity := 0.0
	var costs domain.TransactionCosts
	var ledger []domain.Trade
	curve := make([]domain.EquityPoint, 0, len(bars))

	// The equity curve is a step function: it re-samples the value
	// recorded at the most recent trade event, not a per-bar
	// mark-to-market.
	lastValue := s.cfg.InitialCapital

	for _, bar := range bars {
		switch {
		case bar.Signal == domain.SignalBuy && quantity == 0 && cash > 0:
			spend := cash * s.cfg.PositionSizeFraction
			quantity = spend / bar.Close
			cash -= spend

			costs.Commission += spend * s.cfg.CommissionRate
			costs.Slippage += spend * s.cfg.SlippageRate

			lastValue = cash + quantity*bar.Close - costs.Total()
			ledger = append(ledger, domain.Trade{
				Timestamp:           bar.Timestamp,
				Action:              domain.SignalBuy,
				Price:               bar.Close,
				Quantity:            quantity,
				CashFlow:            -spend,
				PortfolioValueAfter: lastValue,
			})

		case bar.Signal == domain.SignalSell && quantity > 0:
			proceeds := quantity * bar.Close
			cash += proceeds

			costs.Commission += proceeds * s.cfg.CommissionRate
			costs.Slippage += proceeds * s.cfg.SlippageRate

			lastValue = cash - costs.Total()
			ledger = append(ledger, domain.Trade{
				Timestamp:           bar.Timestamp,
				Action:              domain.SignalSell,
				Price:               bar.Close,
				Quantity:            quantity,
				CashFlow:            proceeds,
				PortfolioValueAfter: lastValue,
			})
			quantity = 0

		case bar.Signal == domain.SignalBuy && quantity > 0:
			// Already long; conservative no-op.
			s.log.Debug("ignoring BUY while long", "ts", bar.Timestamp)

		case bar.Signal == domain.SignalSell && quantity == 0:
			s.log.Debug("ignoring SELL while flat", "ts", bar.Timestamp)
		}

		curve = append(curve, domain.EquityPoint{Timestamp: bar.Timestamp, Value: lastValue})
	}

	finalValue := cash + quantity*bars[len(bars)-1].Close - costs.Total()

	res := &Result{
		Ledger:         ledger,
		EquityCurve:    curve,
		Costs:          costs,
		InitialCapital: s.cfg.InitialCapital,
		FinalValue:     finalValue,
	}
	res.Report = ComputeReport(ledger, curve, s.cfg.InitialCapital, finalValue)
	return res, nil
}
