// Package optimize runs exhaustive grid searches over strategy parameter
// combinations, scoring each candidate with a full signal-generation and
// backtest pass. Invalid combinations are skipped, never counted as
// failures, and every valid combination is evaluated; there is no early
// stopping.
package optimize

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/SNMiguel/cryptobot/internal/backtest"
	"github.com/SNMiguel/cryptobot/internal/domain"
	"github.com/SNMiguel/cryptobot/internal/strategy"
)

// Result is the recorded outcome of one grid trial.
type Result struct {
	Strategy       string
	Params         map[string]float64
	TotalReturnPct float64
	NumTrades      int
	WinRate        float64
}

// Optimizer sweeps a candidate list against one bar series.
type Optimizer struct {
	cfg     backtest.Config
	workers int
	log     *slog.Logger
}

// New creates an Optimizer. workers <= 1 runs trials sequentially; larger
// values fan trials out over that many goroutines, each writing into its own
// result slot and sharing only the read-only bar slice.
func New(cfg backtest.Config, workers int, log *slog.Logger) *Optimizer {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Optimizer{cfg: cfg, workers: workers, log: log.With("component", "optimizer")}
}

// Search evaluates every candidate against bars and returns results sorted
// descending by total return percentage. Candidates whose Validate fails are
// skipped with a debug log entry and do not appear in the output.
func (o *Optimizer) Search(bars []domain.Bar, candidates []strategy.Strategy) ([]Result, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: empty bar series", domain.ErrInvalidData)
	}

	slots := make([]*Result, len(candidates))
	if o.workers <= 1 {
		for i, cand := range candidates {
			slots[i] = o.trial(bars, cand)
		}
	} else {
		var wg sync.WaitGroup
		idx := make(chan int)
		for w := 0; w < o.workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range idx {
					slots[i] = o.trial(bars, candidates[i])
				}
			}()
		}
		for i := range candidates {
			idx <- i
		}
		close(idx)
		wg.Wait()
	}

	results := make([]Result, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].TotalReturnPct > results[j].TotalReturnPct
	})
	return results, nil
}

// trial runs one candidate through the full pipeline. A nil return means
// the combination was skipped.
func (o *Optimizer) trial(bars []domain.Bar, cand strategy.Strategy) *Result {
	if err := cand.Validate(); err != nil {
		o.log.Debug("skipping invalid combination",
			"strategy", cand.Name(), "params", cand.Parameters(), "err", err)
		return nil
	}

	signaled, err := cand.GenerateSignals(bars)
	if err != nil {
		o.log.Warn("signal generation failed",
			"strategy", cand.Name(), "params", cand.Parameters(), "err", err)
		return nil
	}

	res, err := backtest.NewSimulator(o.cfg, o.log).Run(signaled)
	if err != nil {
		o.log.Warn("simulation failed",
			"strategy", cand.Name(), "params", cand.Parameters(), "err", err)
		return nil
	}

	return &Result{
		Strategy:       cand.Name(),
		Params:         cand.Parameters(),
		TotalReturnPct: res.Report.TotalReturnPct,
		NumTrades:      res.Report.NumTrades,
		WinRate:        res.Report.WinRate,
	}
}

// CrossoverGrid enumerates every fast/slow period pair. Pairs with
// fast >= slow survive enumeration and are dropped later by Validate.
func CrossoverGrid(fasts, slows []int, maType string) []strategy.Strategy {
	out := make([]strategy.Strategy, 0, len(fasts)*len(slows))
	for _, f := range fasts {
		for _, s := range slows {
			out = append(out, strategy.NewMACrossover(f, s, maType))
		}
	}
	return out
}

// RSIGrid enumerates every period/oversold/overbought triple.
func RSIGrid(periods []int, oversolds, overboughts []float64) []strategy.Strategy {
	out := make([]strategy.Strategy, 0, len(periods)*len(oversolds)*len(overboughts))
	for _, p := range periods {
		for _, os := range oversolds {
			for _, ob := range overboughts {
				out = append(out, strategy.NewRSIMeanReversion(p, os, ob))
			}
		}
	}
	return out
}
