// Package domain defines the core data types shared across the cryptobot
// platform: price bars, signals, ledger trades, positions, and the
// performance aggregates derived from a backtest or paper-trading run.
package domain

import "time"

// Signal is a discrete per-bar trading decision.
type Signal string

// Signal values.
const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Direction distinguishes long from short exposure in risk calculations.
type Direction string

// Direction values.
const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// CloseReason records why a paper-trading position was closed.
type CloseReason string

// CloseReason values.
const (
	CloseReasonSignal       CloseReason = "SIGNAL"
	CloseReasonStopLoss     CloseReason = "STOP_LOSS"
	CloseReasonTakeProfit   CloseReason = "TAKE_PROFIT"
	CloseReasonEndOfSession CloseReason = "END_OF_SESSION"
)

// Bar is one OHLCV record for a symbol at a fixed interval. Bars are
// immutable once loaded and must be ordered ascending by timestamp with no
// duplicate timestamps.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
	TradeCount int64
	VWAP       float64
}

// SignaledBar is a Bar annotated by a strategy with a discrete signal and a
// signal strength in [-1, 1]. Produced once per strategy run and not mutated
// afterward.
type SignaledBar struct {
	Bar
	Signal   Signal
	Strength float64
}

// Trade is one executed entry in the trade ledger. Ledger entries are
// append-only; cost adjustments produce derived values, never in-place edits
// of Price or Quantity.
type Trade struct {
	Timestamp time.Time
	Action    Signal // SignalBuy or SignalSell
	Price     float64
	Quantity  float64
	// CashFlow is the signed cash movement: negative for buys, positive
	// for sells.
	CashFlow float64
	// PortfolioValueAfter is the cost-adjusted portfolio value recorded at
	// the moment the trade executed.
	PortfolioValueAfter float64
	// Reason is set on closing trades from a paper-trading session; empty
	// for plain backtest ledger entries.
	Reason CloseReason
}

// Position is an open holding in a paper-trading portfolio. At most one
// position exists per symbol at a time; it is created on open and destroyed
// on close.
type Position struct {
	Symbol        string
	Quantity      float64
	EntryPrice    float64
	EntryTime     time.Time
	StopLoss      float64 // 0 means no stop attached
	TakeProfit    float64 // 0 means no target attached
	UnrealizedPnL float64
	// RiskAmount is the cash at risk between entry and stop, used for the
	// portfolio-level risk aggregate.
	RiskAmount float64
}

// Value returns the mark-to-market value of the position at price.
func (p *Position) Value(price float64) float64 {
	return p.Quantity * price
}

// EquityPoint is one sample of the equity curve: portfolio value at a bar
// timestamp.
type EquityPoint struct {
	Timestamp time.Time
	Value     float64
}

// TransactionCosts breaks down the simulated execution costs of a run.
type TransactionCosts struct {
	Commission float64
	Slippage   float64
}

// Total returns commission plus slippage.
func (c TransactionCosts) Total() float64 {
	return c.Commission + c.Slippage
}

// PerformanceReport is the read-only metrics aggregate derived from a trade
// ledger and equity curve.
type PerformanceReport struct {
	TotalReturn        float64
	TotalReturnPct     float64
	NumTrades          int
	NumCompletedTrades int
	WinRate            float64 // percent of completed trades that won
	ProfitFactor       float64 // gross profit / gross loss
	SharpeRatio        float64 // annualized, sqrt(252)
	MaxDrawdown        float64 // non-positive percentage
	AvgWin             float64
	AvgLoss            float64 // absolute value
}
