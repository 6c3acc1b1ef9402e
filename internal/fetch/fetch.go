// Package fetch acquires historical crypto market data from the Alpaca
// market-data API and persists it to the bar store. It lives outside the
// backtesting core; nothing in the core calls the network.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/SNMiguel/cryptobot/internal/domain"
	"github.com/SNMiguel/cryptobot/internal/store"
	"github.com/SNMiguel/cryptobot/internal/util"
)

const (
	fetchMaxAttempts = 3
	fetchBaseDelay   = 2 * time.Second
)

// CryptoBarFetcher fetches daily OHLCV bars for crypto pairs via the Alpaca
// market-data API and writes them to a BarStore.
type CryptoBarFetcher struct {
	client    *marketdata.Client
	store     store.BarStore
	symbols   []string
	startDate string
	limiter   *util.RateLimiter
	log       *slog.Logger
}

// NewCryptoBarFetcher creates a CryptoBarFetcher. Crypto market data does not
// require credentials, but supplying them raises the API rate limit.
func NewCryptoBarFetcher(apiKey, apiSecret, dataURL string, s store.BarStore, symbols []string, startDate string, rateLimitPerMin int) *CryptoBarFetcher {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	if rateLimitPerMin <= 0 {
		rateLimitPerMin = 200
	}

	return &CryptoBarFetcher{
		client:    marketdata.NewClient(opts),
		store:     s,
		symbols:   symbols,
		startDate: startDate,
		limiter:   util.NewRateLimiter(rateLimitPerMin),
		log:       slog.Default().With("fetcher", "crypto-daily"),
	}
}

// Name returns the fetcher identifier.
func (f *CryptoBarFetcher) Name() string { return "crypto-daily" }

// Run fetches daily bars for every configured symbol from the start date up
// to now and writes them to the store. Per-symbol failures are logged and
// the run continues; an error is returned only when every symbol fails.
func (f *CryptoBarFetcher) Run(ctx context.Context) error {
	start, err := time.Parse("2006-01-02", f.startDate)
	if err != nil {
		return fmt.Errorf("parsing start date %q: %w", f.startDate, err)
	}
	end := time.Now().UTC()

	runStart := time.Now()
	var failures int
	for _, symbol := range f.symbols {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}

		var bars []domain.Bar
		err := util.Retry(ctx, fetchMaxAttempts, fetchBaseDelay, func() error {
			var ferr error
			bars, ferr = f.fetchBars(symbol, start, end)
			return ferr
		})
		if err != nil {
			f.log.Error("fetching bars failed", "symbol", symbol, "err", err)
			failures++
			continue
		}

		if err := f.store.WriteBars(ctx, bars); err != nil {
			f.log.Error("writing bars failed", "symbol", symbol, "err", err)
			failures++
			continue
		}
		f.log.Info("symbol done", "symbol", symbol, "bars", len(bars))
	}

	if failures == len(f.symbols) && len(f.symbols) > 0 {
		return fmt.Errorf("all %d symbols failed", failures)
	}

	f.log.Info("complete",
		"symbols", len(f.symbols),
		"failures", failures,
		"elapsed", time.Since(runStart).Round(time.Second),
	)
	return nil
}

// fetchBars fetches daily bars for one symbol in a single API call.
func (f *CryptoBarFetcher) fetchBars(symbol string, start, end time.Time) ([]domain.Bar, error) {
	cryptoBars, err := f.client.GetCryptoBars(symbol, marketdata.GetCryptoBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("GetCryptoBars %s: %w", symbol, err)
	}
	return convertBars(symbol, cryptoBars), nil
}

// convertBars maps Alpaca crypto bars onto domain bars.
func convertBars(symbol string, cryptoBars []marketdata.CryptoBar) []domain.Bar {
	bars := make([]domain.Bar, 0, len(cryptoBars))
	for _, cb := range cryptoBars {
		bars = append(bars, domain.Bar{
			Symbol:     symbol,
			Timestamp:  cb.Timestamp,
			Open:       cb.Open,
			High:       cb.High,
			Low:        cb.Low,
			Close:      cb.Close,
			Volume:     cb.Volume,
			TradeCount: int64(cb.TradeCount),
			VWAP:       cb.VWAP,
		})
	}
	return bars
}
