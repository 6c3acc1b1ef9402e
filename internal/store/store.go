// Package store persists and retrieves domain objects: OHLCV bars in
// Parquet files and backtest results in SQLite.
package store

import (
	"context"
	"time"

	"github.com/SNMiguel/cryptobot/internal/domain"
)

// BarStore persists and retrieves OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars to storage.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end].
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols with stored bars.
	ListSymbols(ctx context.Context) ([]string, error)
}

// BacktestRecord is one persisted backtest or optimizer-trial outcome,
// keyed by strategy name and run timestamp.
type BacktestRecord struct {
	ID             int64
	Strategy       string
	Symbol         string
	RunAt          time.Time
	Params         string // flattened "key=value" pairs
	InitialCapital float64
	FinalValue     float64
	TotalReturnPct float64
	NumTrades      int
	WinRate        float64
	ProfitFactor   float64
	SharpeRatio    float64
	MaxDrawdown    float64
}

// ResultStore persists and retrieves backtest results.
type ResultStore interface {
	// SaveResult inserts a record and fills in its ID.
	SaveResult(ctx context.Context, rec *BacktestRecord) error

	// ListResults returns the most recent records for a strategy, newest
	// first, up to limit. An empty strategy matches all strategies.
	ListResults(ctx context.Context, strategy string, limit int) ([]BacktestRecord, error)
}
