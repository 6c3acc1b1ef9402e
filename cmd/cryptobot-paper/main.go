package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/SNMiguel/cryptobot/internal/config"
	"github.com/SNMiguel/cryptobot/internal/paper"
	"github.com/SNMiguel/cryptobot/internal/store"
	"github.com/SNMiguel/cryptobot/internal/strategy"
	"github.com/SNMiguel/cryptobot/internal/util"
)

func main() {
	symbol := flag.String("symbol", "BTC/USD", "pair symbol to trade")
	stratName := flag.String("strategy", "ma-crossover", "strategy name (ma-crossover or rsi-reversion)")
	fast := flag.Int("fast", 10, "fast moving-average period")
	slow := flag.Int("slow", 30, "slow moving-average period")
	maType := flag.String("ma", "sma", "moving-average type (sma or ema)")
	rsiPeriod := flag.Int("rsi-period", 14, "RSI period")
	oversold := flag.Float64("oversold", 30, "RSI oversold threshold")
	overbought := flag.Float64("overbought", 70, "RSI overbought threshold")
	startStr := flag.String("start", "2021-01-01", "session start date (YYYY-MM-DD)")
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

	reg := strategy.NewRegistry()
	reg.Register(strategy.NewMACrossover(*fast, *slow, *maType))
	reg.Register(strategy.NewRSIMeanReversion(*rsiPeriod, *oversold, *overbought))

	strat, ok := reg.Get(*stratName)
	if !ok {
		log.Fatalf("unknown strategy %q, available: %v", *stratName, reg.List())
	}
	if err := strat.Validate(); err != nil {
		log.Fatalf("invalid strategy parameters: %v", err)
	}

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

	signaled, err := strat.GenerateSignals(bars)
	if err != nil {
		log.Fatalf("generating signals: %v", err)
	}

	session := paper.NewSession(paper.Config{
		InitialCapital:       cfg.Backtest.InitialCapital,
		PositionSizeFraction: cfg.Backtest.PositionSizeFraction,
		CommissionRate:       cfg.Backtest.CommissionRate,
		SlippageRate:         cfg.Backtest.SlippageRate,
		StopLossPct:          cfg.Risk.StopLossPct,
		TakeProfitPct:        cfg.Risk.TakeProfitPct,
		MaxPortfolioRiskPct:  cfg.Risk.MaxPortfolioRiskPct,
	}, logger)

	res, err := session.Run(signaled)
	if err != nil {
		log.Fatalf("running session: %v", err)
	}

	r := res.Report
	fmt.Printf("strategy:        %s (%s)\n", strat.Name(), strategy.FormatParams(strat.Parameters()))
	fmt.Printf("symbol:          %s  bars: %d\n", *symbol, len(bars))
	fmt.Printf("final value:     %.2f\n", res.FinalValue)
	fmt.Printf("total return:    %.2f (%.2f%%)\n", r.TotalReturn, r.TotalReturnPct)
	fmt.Printf("trades:          %d (%d completed)\n", r.NumTrades, r.NumCompletedTrades)
	fmt.Printf("win rate:        %.1f%%\n", r.WinRate)
	fmt.Printf("sharpe ratio:    %.2f\n", r.SharpeRatio)
	fmt.Printf("max drawdown:    %.2f%%\n", r.MaxDrawdown)

	for _, trade := range res.Portfolio.History {
		if trade.Reason != "" {
			logger.Info("close",
				"ts", trade.Timestamp.Format("2006-01-02"),
				"price", trade.Price,
				"reason", trade.Reason,
			)
		}
	}
}
