package store

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SNMiguel/cryptobot/internal/domain"
)

func TestParquetStorePath(t *testing.T) {
	ps := NewParquetStore("/data")

	// Pair separators map to "-" on disk.
	bp := ps.barPath("BTC/USD", 2024)

	wantBarPath := filepath.Join("/data", "crypto", "BTC-USD", "2024.parquet")
	if bp != wantBarPath {
		t.Errorf("barPath mismatch:\n  got  %s\n  want %s", bp, wantBarPath)
	}
	if strings.Contains(bp, "/USD.") {
		t.Errorf("barPath should not contain a raw pair separator: %s", bp)
	}
}

func TestParquetStoreWriteReadBars(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	bars := []domain.Bar{
		{
			Symbol:     "BTC/USD",
			Timestamp:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Open:       42000.0,
			High:       43500.0,
			Low:        41800.0,
			Close:      43200.0,
			Volume:     1250.5,
			TradeCount: 500000,
			VWAP:       42800.0,
		},
		{
			Symbol:     "BTC/USD",
			Timestamp:  time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			Open:       43200.0,
			High:       44000.0,
			Low:        42900.0,
			Close:      43800.0,
			Volume:     1100.25,
			TradeCount: 450000,
			VWAP:       43500.0,
		},
	}

	// Write bars.
	if err := ps.WriteBars(ctx, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	// Read them back.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	got, err := ps.ReadBars(ctx, "BTC/USD", start, end)
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadBars returned %d bars, want 2", len(got))
	}
	if got[0].Close != 43200.0 {
		t.Errorf("first bar Close = %v, want 43200", got[0].Close)
	}
	if got[1].Close != 43800.0 {
		t.Errorf("second bar Close = %v, want 43800", got[1].Close)
	}
}

func TestParquetStoreMergeBars(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	// Write initial bar.
	bars1 := []domain.Bar{
		{
			Symbol:    "ETH/USD",
			Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Open:      3400.0, High: 3450.0, Low: 3390.0, Close: 3430.0,
			Volume: 8000.0, TradeCount: 300000, VWAP: 3420.0,
		},
	}
	if err := ps.WriteBars(ctx, bars1); err != nil {
		t.Fatalf("WriteBars (first): %v", err)
	}

	// Write another bar for the same symbol+year; it should merge, not
	// overwrite.
	bars2 := []domain.Bar{
		{
			Symbol:    "ETH/USD",
			Timestamp: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			Open:      3430.0, High: 3500.0, Low: 3420.0, Close: 3480.0,
			Volume: 9000.0, TradeCount: 350000, VWAP: 3460.0,
		},
	}
	if err := ps.WriteBars(ctx, bars2); err != nil {
		t.Fatalf("WriteBars (second): %v", err)
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	got, err := ps.ReadBars(ctx, "ETH/USD", start, end)
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadBars returned %d bars after merge, want 2", len(got))
	}
}

func TestParquetStoreListSymbols(t *testing.T) {
	dir := t.TempDir()
	ps := NewParquetStore(dir)
	ctx := context.Background()

	// Write bars for two symbols.
	bars := []domain.Bar{
		{Symbol: "BTC/USD", Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 42000, High: 43000, Low: 41000, Close: 42500, Volume: 1000},
		{Symbol: "ETH/USD", Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 3400, High: 3450, Low: 3350, Close: 3420, Volume: 8000},
	}
	if err := ps.WriteBars(ctx, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	symbols, err := ps.ListSymbols(ctx)
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("ListSymbols returned %d symbols, want 2", len(symbols))
	}
	if symbols[0] != "BTC/USD" || symbols[1] != "ETH/USD" {
		t.Errorf("ListSymbols = %v, want [BTC/USD ETH/USD]", symbols)
	}
}

func TestSQLiteStoreSaveAndList(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore(%q) returned error: %v", dbPath, err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			t.Errorf("Close() returned error: %v", cerr)
		}
	}()

	ctx := context.Background()
	rec := &BacktestRecord{
		Strategy:       "ma-crossover",
		Symbol:         "BTC/USD",
		RunAt:          time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Params:         "fast_period=10 slow_period=30",
		InitialCapital: 10000,
		FinalValue:     11500,
		TotalReturnPct: 15,
		NumTrades:      8,
		WinRate:        62.5,
		ProfitFactor:   2.1,
		SharpeRatio:    1.4,
		MaxDrawdown:    -8.2,
	}
	if err := store.SaveResult(ctx, rec); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if rec.ID == 0 {
		t.Error("SaveResult did not assign an ID")
	}

	later := &BacktestRecord{
		Strategy: "ma-crossover",
		Symbol:   "BTC/USD",
		RunAt:    time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC),
		Params:   "fast_period=5 slow_period=20",
	}
	if err := store.SaveResult(ctx, later); err != nil {
		t.Fatalf("SaveResult (second): %v", err)
	}

	got, err := store.ListResults(ctx, "ma-crossover", 10)
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListResults returned %d records, want 2", len(got))
	}
	// Newest first.
	if !got[0].RunAt.After(got[1].RunAt) {
		t.Errorf("ListResults order: %v before %v", got[0].RunAt, got[1].RunAt)
	}
	if got[1].TotalReturnPct != 15 {
		t.Errorf("TotalReturnPct = %v, want 15", got[1].TotalReturnPct)
	}
	if got[1].Params != "fast_period=10 slow_period=30" {
		t.Errorf("Params = %q", got[1].Params)
	}

	// Unknown strategy matches nothing.
	none, err := store.ListResults(ctx, "unknown", 10)
	if err != nil {
		t.Fatalf("ListResults (unknown): %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ListResults for unknown strategy = %d records, want 0", len(none))
	}
}

func TestSQLiteStoreInfiniteProfitFactor(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSQLiteStore(filepath.Join(dir, "pf.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	rec := &BacktestRecord{
		Strategy:     "rsi-reversion",
		Symbol:       "ETH/USD",
		RunAt:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		ProfitFactor: math.Inf(1),
	}
	if err := store.SaveResult(ctx, rec); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	got, err := store.ListResults(ctx, "rsi-reversion", 1)
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListResults returned %d records, want 1", len(got))
	}
	if !math.IsInf(got[0].ProfitFactor, 1) {
		t.Errorf("ProfitFactor = %v, want +Inf", got[0].ProfitFactor)
	}
}
