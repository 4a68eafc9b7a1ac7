package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotReady is returned when the reference caches have not all been
// populated at least once.
var ErrNotReady = errors.New("reference data not ready")

// MarketFeed defines the upstream market-data endpoints the board polls.
type MarketFeed interface {
	GetSpotInstruments(ctx context.Context) ([]SpotInstrument, error)
	GetFuturesInstruments(ctx context.Context) ([]FuturesInstrument, error)
	GetTickers(ctx context.Context) ([]TickerRecord, error)
	GetFundingRates(ctx context.Context) ([]FundingRecord, error)
	GetMarketListings(ctx context.Context) ([]MarketListing, error)
}

// SnapshotSink receives every newly built snapshot together with its
// serialized form. The payload is shared and must not be modified.
type SnapshotSink interface {
	Publish(ctx context.Context, snap Snapshot, payload []byte) error
}

// HistoryStore persists snapshots for historical retention.
type HistoryStore interface {
	SaveSnapshot(ctx context.Context, snap Snapshot, at time.Time) error
	ListHistory(ctx context.Context, symbol string, limit int) ([]HistoryRow, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Compact(ctx context.Context) error
	Close() error
}
