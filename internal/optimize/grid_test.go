package optimize

import (
	"errors"
	"testing"
	"time"

	"github.com/SNMiguel/cryptobot/internal/backtest"
	"github.com/SNMiguel/cryptobot/internal/domain"
)

func barsFromCloses(closes []float64) []domain.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Symbol:    "BTC/USD",
			Timestamp: base.AddDate(0, 0, i),
			Open:      c, High: c, Low: c, Close: c,
		}
	}
	return bars
}

func waveBars() []domain.Bar {
	return barsFromCloses([]float64{
		10, 11, 12, 13, 12, 11, 10, 11, 12, 13,
		14, 15, 14, 13, 12, 13, 14, 15, 16, 17,
	})
}

func TestSearchSkipsInvalidCombinations(t *testing.T) {
	o := New(backtest.Config{InitialCapital: 1000}, 1, nil)

	// 2x2 grid; (3,3) fails validation and must vanish silently.
	candidates := CrossoverGrid([]int{2, 3}, []int{3, 5}, "sma")
	if len(candidates) != 4 {
		t.Fatalf("grid size = %d, want 4", len(candidates))
	}

	results, err := o.Search(waveBars(), candidates)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("result count = %d, want 3", len(results))
	}
	for _, r := range results {
		if r.Params["fast_period"] >= r.Params["slow_period"] {
			t.Errorf("invalid combination surfaced: %v", r.Params)
		}
	}
}

func TestSearchSortsDescending(t *testing.T) {
	o := New(backtest.Config{InitialCapital: 1000}, 1, nil)

	candidates := CrossoverGrid([]int{2, 3, 4}, []int{5, 8, 10}, "sma")
	results, err := o.Search(waveBars(), candidates)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != len(candidates) {
		t.Fatalf("result count = %d, want %d", len(results), len(candidates))
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].TotalReturnPct < results[i].TotalReturnPct {
			t.Errorf("results out of order at %d: %v before %v",
				i, results[i-1].TotalReturnPct, results[i].TotalReturnPct)
		}
	}
}

func TestSearchWorkersMatchSequential(t *testing.T) {
	cfg := backtest.Config{InitialCapital: 1000}
	candidates := CrossoverGrid([]int{2, 3, 4}, []int{5, 8, 10}, "ema")
	bars := waveBars()

	seq, err := New(cfg, 1, nil).Search(bars, candidates)
	if err != nil {
		t.Fatalf("sequential Search: %v", err)
	}
	par, err := New(cfg, 4, nil).Search(bars, candidates)
	if err != nil {
		t.Fatalf("parallel Search: %v", err)
	}

	if len(seq) != len(par) {
		t.Fatalf("result counts differ: %d vs %d", len(seq), len(par))
	}
	for i := range seq {
		if seq[i].TotalReturnPct != par[i].TotalReturnPct ||
			seq[i].NumTrades != par[i].NumTrades {
			t.Errorf("result %d differs: %+v vs %+v", i, seq[i], par[i])
		}
	}
}

func TestSearchRSIGrid(t *testing.T) {
	o := New(backtest.Config{InitialCapital: 1000}, 1, nil)

	// 40 >= 35 is invalid and must be skipped.
	candidates := RSIGrid([]int{5}, []float64{30, 40}, []float64{35, 70})
	results, err := o.Search(waveBars(), candidates)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("result count = %d, want 3", len(results))
	}
	for _, r := range results {
		if r.Strategy != "rsi-reversion" {
			t.Errorf("strategy = %q, want rsi-reversion", r.Strategy)
		}
	}
}

func TestSearchEmptyBars(t *testing.T) {
	o := New(backtest.Config{InitialCapital: 1000}, 1, nil)
	_, err := o.Search(nil, CrossoverGrid([]int{2}, []int{5}, "sma"))
	if !errors.Is(err, domain.ErrInvalidData) {
		t.Fatalf("err = %v, want ErrInvalidData", err)
	}
}
