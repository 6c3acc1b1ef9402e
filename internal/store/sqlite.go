package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ ResultStore = (*SQLiteStore)(nil)

const createBacktestsTable = `
CREATE TABLE IF NOT EXISTS backtests (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	strategy        TEXT NOT NULL,
	symbol          TEXT NOT NULL,
	run_at          INTEGER NOT NULL,
	params          TEXT NOT NULL,
	initial_capital REAL NOT NULL,
	final_value     REAL NOT NULL,
	total_return_pct REAL NOT NULL,
	num_trades      INTEGER NOT NULL,
	win_rate        REAL NOT NULL,
	profit_factor   REAL NOT NULL,
	sharpe_ratio    REAL NOT NULL,
	max_drawdown    REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_backtests_strategy_run_at
	ON backtests (strategy, run_at DESC);
`

// SQLiteStore implements ResultStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, ensures the
// schema exists, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(createBacktestsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating backtests table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveResult inserts a record and fills in its ID. A non-finite profit
// factor (no losing trades) is stored as -1 since SQLite has no literal
// for infinity.
func (s *SQLiteStore) SaveResult(ctx context.Context, rec *BacktestRecord) error {
	pf := rec.ProfitFactor
	if math.IsInf(pf, 0) || math.IsNaN(pf) {
		pf = -1
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO backtests (
			strategy, symbol, run_at, params,
			initial_capital, final_value, total_return_pct,
			num_trades, win_rate, profit_factor, sharpe_ratio, max_drawdown
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Strategy, rec.Symbol, rec.RunAt.UnixMilli(), rec.Params,
		rec.InitialCapital, rec.FinalValue, rec.TotalReturnPct,
		rec.NumTrades, rec.WinRate, pf, rec.SharpeRatio, rec.MaxDrawdown,
	)
	if err != nil {
		return fmt.Errorf("inserting backtest result: %w", err)
	}
	rec.ID, err = res.LastInsertId()
	return err
}

// ListResults returns the most recent records for a strategy, newest first,
// up to limit. An empty strategy matches all strategies.
func (s *SQLiteStore) ListResults(ctx context.Context, strategy string, limit int) ([]BacktestRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, strategy, symbol, run_at, params,
			initial_capital, final_value, total_return_pct,
			num_trades, win_rate, profit_factor, sharpe_ratio, max_drawdown
		FROM backtests`
	args := []any{}
	if strategy != "" {
		query += ` WHERE strategy = ?`
		args = append(args, strategy)
	}
	query += ` ORDER BY run_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying backtest results: %w", err)
	}
	defer rows.Close()

	var out []BacktestRecord
	for rows.Next() {
		var rec BacktestRecord
		var runAt int64
		if err := rows.Scan(
			&rec.ID, &rec.Strategy, &rec.Symbol, &runAt, &rec.Params,
			&rec.InitialCapital, &rec.FinalValue, &rec.TotalReturnPct,
			&rec.NumTrades, &rec.WinRate, &rec.ProfitFactor,
			&rec.SharpeRatio, &rec.MaxDrawdown,
		); err != nil {
			return nil, err
		}
		rec.RunAt = time.UnixMilli(runAt).UTC()
		if rec.ProfitFactor == -1 {
			rec.ProfitFactor = math.Inf(1)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
