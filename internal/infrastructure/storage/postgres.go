package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vitos/perp_board/internal/domain"
)

// PostgresConfig holds a single database connection.
type PostgresConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int
	MinConns int
}

// BuildConnString builds a PostgreSQL connection string from config.
func BuildConnString(cfg PostgresConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS coins (
			symbol TEXT NOT NULL,
			name TEXT,
			price DOUBLE PRECISION,
			change24h DOUBLE PRECISION,
			funding_rate DOUBLE PRECISION,
			market_cap DOUBLE PRECISION,
			fdv DOUBLE PRECISION,
			timestamp BIGINT NOT NULL,
			PRIMARY KEY (symbol, timestamp)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_coins_timestamp ON coins(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_coins_market_cap ON coins(market_cap)`,
		`CREATE INDEX IF NOT EXISTS idx_coins_fdv ON coins(fdv)`,
		`CREATE INDEX IF NOT EXISTS idx_coins_price ON coins(price)`,
		`CREATE INDEX IF NOT EXISTS idx_coins_funding_rate ON coins(funding_rate)`,
	}
	for _, q := range queries {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap domain.Snapshot, at time.Time) error {
	const query = `INSERT INTO coins (symbol, name, price, change24h, funding_rate, market_cap, fdv, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, timestamp) DO UPDATE SET
		name = EXCLUDED.name,
		price = EXCLUDED.price,
		change24h = EXCLUDED.change24h,
		funding_rate = EXCLUDED.funding_rate,
		market_cap = EXCLUDED.market_cap,
		fdv = EXCLUDED.fdv`

	ts := at.UnixMilli()
	batch := &pgx.Batch{}
	for _, r := range snap {
		batch.Queue(query, r.Symbol, r.DisplayName, r.Price, r.Change24h, r.FundingRate,
			r.MarketCap, r.FullyDilutedValuation, ts)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range snap {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert history row: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) ListHistory(ctx context.Context, symbol string, limit int) ([]domain.HistoryRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT symbol, name, price, change24h, funding_rate, market_cap, fdv, timestamp
		 FROM coins WHERE symbol = $1 ORDER BY timestamp DESC LIMIT $2`, symbol, limit)
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

func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM coins WHERE timestamp < $1", cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Compact(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "VACUUM coins")
	return err
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
