package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/perp_board/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS coins (
			symbol TEXT NOT NULL,
			name TEXT,
			price REAL,
			change24h REAL,
			funding_rate REAL,
			market_cap REAL,
			fdv REAL,
			timestamp INTEGER NOT NULL,
			PRIMARY KEY (symbol, timestamp)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_coins_timestamp ON coins(timestamp);`,
		`CREATE INDEX IF NOT EXISTS idx_coins_market_cap ON coins(market_cap);`,
		`CREATE INDEX IF NOT EXISTS idx_coins_fdv ON coins(fdv);`,
		`CREATE INDEX IF NOT EXISTS idx_coins_price ON coins(price);`,
		`CREATE INDEX IF NOT EXISTS idx_coins_funding_rate ON coins(funding_rate);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

// HistoryStore Implementation

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap domain.Snapshot, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO coins (symbol, name, price, change24h, funding_rate, market_cap, fdv, timestamp)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(symbol, timestamp) DO UPDATE SET
			  name=excluded.name,
			  price=excluded.price,
			  change24h=excluded.change24h,
			  funding_rate=excluded.funding_rate,
			  market_cap=excluded.market_cap,
			  fdv=excluded.fdv`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	ts := at.UnixMilli()
	for _, r := range snap {
		if _, err := stmt.ExecContext(ctx,
			r.Symbol, r.DisplayName, r.Price, r.Change24h, r.FundingRate,
			r.MarketCap, r.FullyDilutedValuation, ts); err != nil {
			return fmt.Errorf("insert %s: %w", r.Symbol, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) ListHistory(ctx context.Context, symbol string, limit int) ([]domain.HistoryRow, error) {
	query := `SELECT symbol, name, price, change24h, funding_rate, market_cap, fdv, timestamp FROM coins WHERE symbol = ? ORDER BY timestamp DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.HistoryRow
	for rows.Next() {
		var h domain.HistoryRow
		var ts int64
		if err := rows.Scan(&h.Symbol, &h.Name, &h.Price, &h.Change24h, &h.FundingRate, &h.MarketCap, &h.FDV, &ts); err != nil {
			return nil, err
		}
		h.Timestamp = time.UnixMilli(ts)
		history = append(history, h)
	}
	return history, rows.Err()
}

func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM coins WHERE timestamp < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Compact(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
