// Package indicator computes derived series over price data: moving
// averages, RSI, MACD, Bollinger Bands, and ATR. All functions are pure and
// return slices aligned to the input length, with NaN filling the warm-up
// prefix where the indicator is not yet defined.
package indicator

import "math"

// SMA returns the simple moving average of x over period p. Entries before
// index p-1 are NaN.
func SMA(x []float64, p int) []float64 {
	if p <= 0 {
		return nil
	}
	out := make([]float64, len(x))
	var sum float64
	for i := range x {
		sum += x[i]
		if i < p-1 {
			out[i] = math.NaN()
			continue
		}
		if i >= p {
			sum -= x[i-p]
		}
		out[i] = sum / float64(p)
	}
	return out
}

// EMA returns the exponential moving average of x over period p, seeded with
// the SMA of the first p values and smoothed with k = 2/(p+1). Entries before
// index p-1 are NaN.
func EMA(x []float64, p int) []float64 {
	if p <= 0 {
		return nil
	}
	out := make([]float64, len(x))
	if len(x) < p {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	k := 2.0 / float64(p+1)
	var seed float64
	for i := 0; i < p; i++ {
		seed += x[i]
	}
	seed /= float64(p)

	for i := 0; i < p-1; i++ {
		out[i] = math.NaN()
	}
	out[p-1] = seed
	for i := p; i < len(x); i++ {
		out[i] = (x[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// RSI returns the Wilder relative strength index of x over period p, in
// [0, 100]. The first p entries are NaN (one delta is consumed per bar and p
// deltas are needed to seed the averages). A series with no losses reads 100.
func RSI(x []float64, p int) []float64 {
	if p <= 0 {
		return nil
	}
	out := make([]float64, len(x))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(x) < p+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= p; i++ {
		delta := x[i] - x[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss += -delta
		}
	}
	avgGain /= float64(p)
	avgLoss /= float64(p)
	out[p] = rsiValue(avgGain, avgLoss)

	for i := p + 1; i < len(x); i++ {
		delta := x[i] - x[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(p-1) + gain) / float64(p)
		avgLoss = (avgLoss*float64(p-1) + loss) / float64(p)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the MACD line (EMA(fast) - EMA(slow)) and its signal line
// (EMA of the MACD line over signalPeriod). Warm-up entries are NaN.
func MACD(x []float64, fast, slow, signalPeriod int) (macd, signal []float64) {
	fastEMA := EMA(x, fast)
	slowEMA := EMA(x, slow)
	if fastEMA == nil || slowEMA == nil {
		return nil, nil
	}

	macd = make([]float64, len(x))
	for i := range x {
		macd[i] = fastEMA[i] - slowEMA[i] // NaN propagates through warm-up
	}

	// The signal EMA runs over the defined suffix of the MACD line.
	defined := 0
	for defined < len(macd) && math.IsNaN(macd[defined]) {
		defined++
	}
	signal = make([]float64, len(x))
	for i := range signal {
		signal[i] = math.NaN()
	}
	if tail := macd[defined:]; len(tail) > 0 {
		tailEMA := EMA(tail, signalPeriod)
		copy(signal[defined:], tailEMA)
	}
	return macd, signal
}

// Bollinger returns the upper band, middle band (SMA), and lower band over
// period p with the given standard-deviation width. Warm-up entries are NaN.
func Bollinger(x []float64, p int, width float64) (upper, mid, lower []float64) {
	if p <= 0 {
		return nil, nil, nil
	}
	n := len(x)
	upper = make([]float64, n)
	mid = make([]float64, n)
	lower = make([]float64, n)

	var sum, sum2 float64
	for i := 0; i < n; i++ {
		sum += x[i]
		sum2 += x[i] * x[i]
		if i < p-1 {
			upper[i], mid[i], lower[i] = math.NaN(), math.NaN(), math.NaN()
			continue
		}
		if i >= p {
			sum -= x[i-p]
			sum2 -= x[i-p] * x[i-p]
		}
		m := sum / float64(p)
		v := sum2/float64(p) - m*m
		if v < 0 {
			v = 0
		}
		sd := math.Sqrt(v)
		mid[i] = m
		upper[i] = m + width*sd
		lower[i] = m - width*sd
	}
	return upper, mid, lower
}

// ATR returns the Wilder average true range over period p. Entries before
// index p are NaN (the first true range needs a prior close).
func ATR(high, low, closes []float64, p int) []float64 {
	n := len(closes)
	if p <= 0 || len(high) != n || len(low) != n {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	if n < p+1 {
		return out
	}

	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - closes[i-1])
		lc := math.Abs(low[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	var seed float64
	for i := 1; i <= p; i++ {
		seed += tr[i]
	}
	out[p] = seed / float64(p)
	for i := p + 1; i < n; i++ {
		out[i] = (out[i-1]*float64(p-1) + tr[i]) / float64(p)
	}
	return out
}
