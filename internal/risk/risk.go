// Package risk provides pure position-sizing and protective-price
// calculators: fixed-fraction and Kelly sizing, ATR-based unit sizing,
// stop-loss/take-profit prices, a portfolio-level risk cap, and a trailing
// stop that only ratchets in the protective direction.
package risk

import "github.com/SNMiguel/cryptobot/internal/domain"

// FallbackRiskPct is the fixed sizing fraction used when Kelly inputs are
// degenerate (zero average loss or undefined win rate).
const FallbackRiskPct = 0.02

// FixedFraction returns the cash to commit as a fixed fraction of capital.
func FixedFraction(capital, riskPct float64) float64 {
	if capital <= 0 || riskPct <= 0 {
		return 0
	}
	return capital * riskPct
}

// Kelly sizes a position by the Kelly criterion: f = (p*b - q) / b with
// p = winRate, q = 1-p, and b = avgWin/avgLoss, clamped to
// [0, maxKellyFraction]. Degenerate inputs (zero avgLoss, zero or undefined
// winRate) fall back to a fixed 2% of capital rather than dividing by zero.
func Kelly(capital, winRate, avgWin, avgLoss, maxKellyFraction float64) float64 {
	if capital <= 0 {
		return 0
	}
	if avgLoss == 0 || winRate <= 0 {
		return capital * FallbackRiskPct
	}

	b := avgWin / avgLoss
	if b == 0 {
		return capital * FallbackRiskPct
	}
	f := (winRate*b - (1 - winRate)) / b
	if f < 0 {
		f = 0
	}
	if f > maxKellyFraction {
		f = maxKellyFraction
	}
	return capital * f
}

// ATRUnits sizes a position in units so that a stop placed atr*multiplier
// away risks riskPct of capital. Returns 0 when the stop distance or capital
// is degenerate.
func ATRUnits(capital, riskPct, atr, multiplier float64) float64 {
	stopDistance := atr * multiplier
	if capital <= 0 || riskPct <= 0 || stopDistance <= 0 {
		return 0
	}
	return capital * riskPct / stopDistance
}

// StopLossPrice returns the protective stop price pct below (long) or above
// (short) the entry.
func StopLossPrice(entry, pct float64, dir domain.Direction) float64 {
	if dir == domain.DirectionShort {
		return entry * (1 + pct)
	}
	return entry * (1 - pct)
}

// TakeProfitPrice returns the target price pct above (long) or below (short)
// the entry.
func TakeProfitPrice(entry, pct float64, dir domain.Direction) float64 {
	if dir == domain.DirectionShort {
		return entry * (1 - pct)
	}
	return entry * (1 + pct)
}

// RewardRiskRatio returns the ratio of distance-to-target over
// distance-to-stop for a proposed entry. Returns 0 when the risk distance is
// zero.
func RewardRiskRatio(entry, stop, target float64) float64 {
	riskDist := entry - stop
	if riskDist < 0 {
		riskDist = -riskDist
	}
	if riskDist == 0 {
		return 0
	}
	rewardDist := target - entry
	if rewardDist < 0 {
		rewardDist = -rewardDist
	}
	return rewardDist / riskDist
}

// TotalRiskPct aggregates the open positions' risk amounts as a percentage
// of total capital.
func TotalRiskPct(positions map[string]*domain.Position, capital float64) float64 {
	if capital <= 0 {
		return 0
	}
	var total float64
	for _, p := range positions {
		total += p.RiskAmount
	}
	return total / capital * 100
}

// CanOpen reports whether adding a position risking riskAmount keeps the
// portfolio at or under maxRiskPct of capital. It is a boolean check, not an
// error: callers treat a false as a silent rejection.
func CanOpen(positions map[string]*domain.Position, capital, riskAmount, maxRiskPct float64) bool {
	if capital <= 0 {
		return false
	}
	projected := TotalRiskPct(positions, capital) + riskAmount/capital*100
	return projected <= maxRiskPct
}
