// Package paper runs a simulated trading session over signaled bars. Unlike
// the plain backtest simulator it evaluates stop-loss and take-profit levels
// reactively each bar and force-closes anything still open at session end.
package paper

import (
	"fmt"
	"log/slog"

	"github.com/SNMiguel/cryptobot/internal/backtest"
	"github.com/SNMiguel/cryptobot/internal/domain"
	"github.com/SNMiguel/cryptobot/internal/risk"
)

// Config holds the session parameters.
type Config struct {
	InitialCapital       float64
	PositionSizeFraction float64 // defaults to backtest.DefaultPositionSizeFraction
	CommissionRate       float64
	SlippageRate         float64

	StopLossPct         float64 // 0 disables the protective stop
	TakeProfitPct       float64 // 0 disables the target
	MaxPortfolioRiskPct float64 // 0 disables the portfolio risk cap
}

// Portfolio is the session's mutable account state. Positions hold at most
// one entry per symbol; History is the append-only trade ledger.
type Portfolio struct {
	Cash      float64
	Positions map[string]*domain.Position
	History   []domain.Trade
}

// Value marks the portfolio to market using prices, which maps symbol to
// the latest close. Positions without a quote are valued at entry.
func (p *Portfolio) Value(prices map[string]float64) float64 {
	total := p.Cash
	for sym, pos := range p.Positions {
		price, ok := prices[sym]
		if !ok {
			price = pos.EntryPrice
		}
		total += pos.Value(price)
	}
	return total
}

// Result is the output bundle of one session.
type Result struct {
	Portfolio   *Portfolio
	EquityCurve []domain.EquityPoint
	Report      domain.PerformanceReport
	Costs       domain.TransactionCosts
	FinalValue  float64
}

// Session drives the per-bar state machine. Rejected opens (insufficient
// funds, duplicate symbol, portfolio risk cap) are logged no-ops, never
// errors.
type Session struct {
	cfg       Config
	log       *slog.Logger
	portfolio *Portfolio
	costs     domain.TransactionCosts
	lastPrice map[string]float64
}

// NewSession creates a Session with a fresh portfolio.
func NewSession(cfg Config, log *slog.Logger) *Session {
	if cfg.PositionSizeFraction <= 0 {
		cfg.PositionSizeFraction = backtest.DefaultPositionSizeFraction
	}
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		cfg: cfg,
		log: log.With("component", "paper"),
		portfolio: &Portfolio{
			Cash:      cfg.InitialCapital,
			Positions: make(map[string]*domain.Position),
		},
		lastPrice: make(map[string]float64),
	}
}

// Portfolio returns the session's account state.
func (s *Session) Portfolio() *Portfolio { return s.portfolio }

// ProcessBar advances the session by one bar. Order of evaluation for an
// open position: stop-loss, then take-profit, then the strategy's SELL
// signal. A BUY signal with no open position attempts an open.
func (s *Session) ProcessBar(bar domain.SignaledBar) {
	s.lastPrice[bar.Symbol] = bar.Close

	if pos, ok := s.portfolio.Positions[bar.Symbol]; ok {
		pos.UnrealizedPnL = (bar.Close - pos.EntryPrice) * pos.Quantity

		switch {
		case pos.StopLoss > 0 && bar.Close <= pos.StopLoss:
			s.close(bar, pos, domain.CloseReasonStopLoss)
		case pos.TakeProfit > 0 && bar.Close >= pos.TakeProfit:
			s.close(bar, pos, domain.CloseReasonTakeProfit)
		case bar.Signal == domain.SignalSell:
			s.close(bar, pos, domain.CloseReasonSignal)
		}
		return
	}

	if bar.Signal == domain.SignalBuy {
		s.open(bar)
	}
}

func (s *Session) open(bar domain.SignaledBar) {
	spend := s.portfolio.Cash * s.cfg.PositionSizeFraction
	if spend <= 0 || spend > s.portfolio.Cash {
		s.log.Debug("rejecting open",
			"symbol", bar.Symbol, "cash", s.portfolio.Cash,
			"err", domain.ErrInsufficientFunds)
		return
	}

	quantity := spend / bar.Close
	stop := 0.0
	if s.cfg.StopLossPct > 0 {
		stop = risk.StopLossPrice(bar.Close, s.cfg.StopLossPct, domain.DirectionLong)
	}
	target := 0.0
	if s.cfg.TakeProfitPct > 0 {
		target = risk.TakeProfitPrice(bar.Close, s.cfg.TakeProfitPct, domain.DirectionLong)
	}

	riskAmount := (bar.Close - stop) * quantity
	if stop == 0 {
		riskAmount = spend
	}
	if s.cfg.MaxPortfolioRiskPct > 0 &&
		!risk.CanOpen(s.portfolio.Positions, s.cfg.InitialCapital, riskAmount, s.cfg.MaxPortfolioRiskPct) {
		s.log.Debug("rejecting open, portfolio risk cap",
			"symbol", bar.Symbol, "risk_amount", riskAmount)
		return
	}

	s.portfolio.Cash -= spend
	s.costs.Commission += spend * s.cfg.CommissionRate
	s.costs.Slippage += spend * s.cfg.SlippageRate

	s.portfolio.Positions[bar.Symbol] = &domain.Position{
		Symbol:     bar.Symbol,
		Quantity:   quantity,
		EntryPrice: bar.Close,
		EntryTime:  bar.Timestamp,
		StopLoss:   stop,
		TakeProfit: target,
		RiskAmount: riskAmount,
	}
	s.portfolio.History = append(s.portfolio.History, domain.Trade{
		Timestamp:           bar.Timestamp,
		Action:              domain.SignalBuy,
		Price:               bar.Close,
		Quantity:            quantity,
		CashFlow:            -spend,
		PortfolioValueAfter: s.portfolio.Value(s.lastPrice) - s.costs.Total(),
	})
	s.log.Info("opened position", "symbol", bar.Symbol,
		"quantity", quantity, "price", bar.Close, "stop", stop, "target", target)
}

func (s *Session) close(bar domain.SignaledBar, pos *domain.Position, reason domain.CloseReason) {
	proceeds := pos.Quantity * bar.Close
	s.portfolio.Cash += proceeds
	s.costs.Commission += proceeds * s.cfg.CommissionRate
	s.costs.Slippage += proceeds * s.cfg.SlippageRate
	delete(s.portfolio.Positions, bar.Symbol)

	s.portfolio.History = append(s.portfolio.History, domain.Trade{
		Timestamp:           bar.Timestamp,
		Action:              domain.SignalSell,
		Price:               bar.Close,
		Quantity:            pos.Quantity,
		CashFlow:            proceeds,
		PortfolioValueAfter: s.portfolio.Value(s.lastPrice) - s.costs.Total(),
		Reason:              reason,
	})
	s.log.Info("closed position", "symbol", bar.Symbol,
		"quantity", pos.Quantity, "price", bar.Close, "reason", reason)
}

// CloseAll force-closes every open position at its last seen price with
// reason END_OF_SESSION.
func (s *Session) CloseAll(last domain.Bar) {
	for sym, pos := range s.portfolio.Positions {
		price, ok := s.lastPrice[sym]
		if !ok {
			price = pos.EntryPrice
		}
		s.close(domain.SignaledBar{
			Bar: domain.Bar{Symbol: sym, Timestamp: last.Timestamp, Close: price},
		}, pos, domain.CloseReasonEndOfSession)
	}
}

// Run processes a single-symbol signaled series end to end: per-bar state
// machine, a mark-to-market equity curve, end-of-session force close, and
// realized performance over the resulting ledger.
func (s *Session) Run(bars []domain.SignaledBar) (*Result, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: empty signaled series", domain.ErrInvalidData)
	}

	curve := make([]domain.EquityPoint, 0, len(bars))
	for _, bar := range bars {
		s.ProcessBar(bar)
		curve = append(curve, domain.EquityPoint{
			Timestamp: bar.Timestamp,
			Value:     s.portfolio.Value(s.lastPrice) - s.costs.Total(),
		})
	}

	last := bars[len(bars)-1]
	s.CloseAll(last.Bar)

	finalValue := s.portfolio.Cash - s.costs.Total()
	res := &Result{
		Portfolio:   s.portfolio,
		EquityCurve: curve,
		Costs:       s.costs,
		FinalValue:  finalValue,
	}
	res.Report = backtest.ComputeReport(s.portfolio.History, curve, s.cfg.InitialCapital, finalValue)
	return res, nil
}
