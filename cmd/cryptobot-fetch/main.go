package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/SNMiguel/cryptobot/internal/config"
	"github.com/SNMiguel/cryptobot/internal/fetch"
	"github.com/SNMiguel/cryptobot/internal/store"
	"github.com/SNMiguel/cryptobot/internal/util"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "comma-separated pair symbols overriding the config (e.g. BTC/USD,ETH/USD)")
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

	symbols := cfg.Fetch.Symbols
	if *symbolsFlag != "" {
		symbols = strings.Split(*symbolsFlag, ",")
	}
	if len(symbols) == 0 {
		log.Fatal("no symbols configured")
	}

	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	fetcher := fetch.NewCryptoBarFetcher(
		cfg.Alpaca.APIKey,
		cfg.Alpaca.APISecret,
		cfg.Alpaca.DataURL,
		pstore,
		symbols,
		cfg.Fetch.StartDate,
		cfg.Fetch.RateLimitPerMin,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting cryptobot-fetch", "symbols", symbols, "start", cfg.Fetch.StartDate)
	if err := fetcher.Run(ctx); err != nil {
		log.Fatalf("fetch error: %v", err)
	}
}
