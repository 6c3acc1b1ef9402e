package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/SNMiguel/cryptobot/internal/backtest"
	"github.com/SNMiguel/cryptobot/internal/config"
	"github.com/SNMiguel/cryptobot/internal/optimize"
	"github.com/SNMiguel/cryptobot/internal/store"
	"github.com/SNMiguel/cryptobot/internal/strategy"
	"github.com/SNMiguel/cryptobot/internal/util"
)

func main() {
	symbol := flag.String("symbol", "BTC/USD", "pair symbol to sweep")
	stratName := flag.String("strategy", "ma-crossover", "strategy family to sweep (ma-crossover or rsi-reversion)")
	maType := flag.String("ma", "sma", "moving-average type for crossover sweeps")
	startStr := flag.String("start", "2021-01-01", "sweep start date (YYYY-MM-DD)")
	top := flag.Int("top", 10, "number of best results to print")
	save := flag.Bool("save", false, "persist the best result to the SQLite store")
	flag.Parse()

	cfgPath := "config/cryptobot.yaml"
	if p := os.Getenv("CRYPTOBOT_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		log.Fatalf("invalid start date: %v", err)
	}

	ctx := context.Background()
	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	bars, err := pstore.ReadBars(ctx, *symbol, start, time.Now().UTC())
	if err != nil {
		log.Fatalf("reading bars: %v", err)
	}
	if len(bars) == 0 {
		log.Fatalf("no bars for %s, run cryptobot-fetch first", *symbol)
	}

	var candidates []strategy.Strategy
	switch *stratName {
	case "ma-crossover":
		candidates = optimize.CrossoverGrid(
			[]int{5, 10, 15, 20, 25},
			[]int{20, 30, 40, 50, 100, 200},
			*maType,
		)
	case "rsi-reversion":
		candidates = optimize.RSIGrid(
			[]int{7, 14, 21},
			[]float64{20, 25, 30, 35},
			[]float64{65, 70, 75, 80},
		)
	default:
		log.Fatalf("unknown strategy %q", *stratName)
	}

	opt := optimize.New(backtest.Config{
		InitialCapital:       cfg.Backtest.InitialCapital,
		PositionSizeFraction: cfg.Backtest.PositionSizeFraction,
		CommissionRate:       cfg.Backtest.CommissionRate,
		SlippageRate:         cfg.Backtest.SlippageRate,
	}, cfg.Optimize.Workers, logger)

	sweepStart := time.Now()
	results, err := opt.Search(bars, candidates)
	if err != nil {
		log.Fatalf("running sweep: %v", err)
	}
	logger.Info("sweep complete",
		"candidates", len(candidates),
		"evaluated", len(results),
		"elapsed", time.Since(sweepStart).Round(time.Millisecond),
	)

	n := min(*top, len(results))
	fmt.Printf("%-4s %-32s %10s %8s %8s\n", "#", "params", "return%", "trades", "win%")
	for i := 0; i < n; i++ {
		r := results[i]
		fmt.Printf("%-4d %-32s %10.2f %8d %8.1f\n",
			i+1, strategy.FormatParams(r.Params), r.TotalReturnPct, r.NumTrades, r.WinRate)
	}

	if *save && len(results) > 0 {
		rstore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("opening result store: %v", err)
		}
		defer rstore.Close()

		best := results[0]
		rec := &store.BacktestRecord{
			Strategy:       best.Strategy,
			Symbol:         *symbol,
			RunAt:          time.Now().UTC(),
			Params:         strategy.FormatParams(best.Params),
			InitialCapital: cfg.Backtest.InitialCapital,
			TotalReturnPct: best.TotalReturnPct,
			NumTrades:      best.NumTrades,
			WinRate:        best.WinRate,
		}
		if err := rstore.SaveResult(ctx, rec); err != nil {
			log.Fatalf("saving result: %v", err)
		}
		logger.Info("best result saved", "id", rec.ID, "params", rec.Params)
	}
}
