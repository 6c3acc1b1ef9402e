package backtest

import (
	"math"

	"github.com/SNMiguel/cryptobot/internal/domain"
)

// tradingDaysPerYear annualizes the Sharpe ratio for daily bars.
const tradingDaysPerYear = 252

// ComputeReport derives the performance aggregate from a trade ledger and
// equity curve. It is a pure function: re-running it on unmodified inputs
// yields identical values.
func ComputeReport(ledger []domain.Trade, curve []domain.EquityPoint, initialCapital, finalValue float64) domain.PerformanceReport {
	report := domain.PerformanceReport{
		TotalReturn: finalValue - initialCapital,
		NumTrades:   len(ledger),
		SharpeRatio: sharpeRatio(returns(curve)),
		MaxDrawdown: maxDrawdown(curve),
	}
	if initialCapital != 0 {
		report.TotalReturnPct = report.TotalReturn / initialCapital * 100
	}

	pairs := pairTrades(ledger)
	report.NumCompletedTrades = len(pairs)

	var winners, losers int
	var grossProfit, grossLoss float64
	for _, p := range pairs {
		profit := (p.sell.Price - p.buy.Price) * p.buy.Quantity
		if profit > 0 {
			winners++
			grossProfit += profit
		} else if profit < 0 {
			losers++
			grossLoss += -profit
		}
	}

	if len(pairs) > 0 {
		report.WinRate = float64(winners) / float64(len(pairs)) * 100
	}
	if winners > 0 {
		report.AvgWin = grossProfit / float64(winners)
	}
	if losers > 0 {
		report.AvgLoss = grossLoss / float64(losers)
	}
	switch {
	case grossLoss > 0:
		report.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		report.ProfitFactor = math.Inf(1)
	}
	return report
}

// tradePair joins a BUY with the SELL that closed it.
type tradePair struct {
	buy  domain.Trade
	sell domain.Trade
}

// pairTrades matches the i-th BUY with the i-th SELL in emission order. The
// single-position state machine appends every SELL directly after its BUY,
// so positional pairing here is equivalent to FIFO matching. A trailing
// unmatched BUY is left out of the completed set.
func pairTrades(ledger []domain.Trade) []tradePair {
	var buys, sells []domain.Trade
	for _, tr := range ledger {
		switch tr.Action {
		case domain.SignalBuy:
			buys = append(buys, tr)
		case domain.SignalSell:
			sells = append(sells, tr)
		}
	}

	n := len(buys)
	if len(sells) < n {
		n = len(sells)
	}
	pairs := make([]tradePair, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, tradePair{buy: buys[i], sell: sells[i]})
	}
	return pairs
}

// returns computes per-bar simple returns from the equity curve.
func returns(curve []domain.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Value
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (curve[i].Value-prev)/prev)
	}
	return out
}

// sharpeRatio annualizes mean/stddev of the per-bar returns by sqrt(252).
// Returns 0 when the deviation is zero, never dividing by zero.
func sharpeRatio(rets []float64) float64 {
	if len(rets) < 2 {
		return 0
	}
	var sum float64
	for _, r := range rets {
		sum += r
	}
	mean := sum / float64(len(rets))

	var varianceSum float64
	for _, r := range rets {
		d := r - mean
		varianceSum += d * d
	}
	std := math.Sqrt(varianceSum / float64(len(rets)-1))
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdown returns the deepest percentage decline of equity from its
// running peak, as a non-positive percentage. 0 means equity never dipped
// below its peak.
func maxDrawdown(curve []domain.EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := curve[0].Value
	worst := 0.0
	for _, pt := range curve {
		if pt.Value > peak {
			peak = pt.Value
		}
		if peak > 0 {
			dd := (pt.Value - peak) / peak * 100
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}
