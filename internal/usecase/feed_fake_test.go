package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vitos/perp_board/internal/domain"
	"github.com/vitos/perp_board/internal/usecase"
)

// fakeFeed is an in-memory MarketFeed. Each method returns its configured
// error when set, otherwise the configured rows.
type fakeFeed struct {
	mu sync.Mutex

	spot        []domain.SpotInstrument
	spotErr     error
	futures     []domain.FuturesInstrument
	futuresErr  error
	tickers     []domain.TickerRecord
	tickersErr  error
	funding     []domain.FundingRecord
	fundingErr  error
	listings    []domain.MarketListing
	listingsErr error

	// spotFailures makes the next N spot fetches fail.
	spotFailures int

	calls map[string]int
	order []string
}

func (f *fakeFeed) record(name string) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
	f.order = append(f.order, name)
}

func (f *fakeFeed) callOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

func (f *fakeFeed) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeFeed) set(fn func(f *fakeFeed)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeFeed) GetSpotInstruments(ctx context.Context) ([]domain.SpotInstrument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("spot")
	if f.spotFailures > 0 {
		f.spotFailures--
		return nil, errors.New("spot exchange info unavailable")
	}
	return f.spot, f.spotErr
}

func (f *fakeFeed) GetFuturesInstruments(ctx context.Context) ([]domain.FuturesInstrument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("futures")
	return f.futures, f.futuresErr
}

func (f *fakeFeed) GetTickers(ctx context.Context) ([]domain.TickerRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("tickers")
	return f.tickers, f.tickersErr
}

func (f *fakeFeed) GetFundingRates(ctx context.Context) ([]domain.FundingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("funding")
	return f.funding, f.fundingErr
}

func (f *fakeFeed) GetMarketListings(ctx context.Context) ([]domain.MarketListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("market")
	return f.listings, f.listingsErr
}

// btcFeed returns a feed populated with a small, consistent market.
func btcFeed() *fakeFeed {
	return &fakeFeed{
		spot: []domain.SpotInstrument{
			{Symbol: "BTCUSDT", Status: "TRADING"},
			{Symbol: "PEPEUSDT", Status: "TRADING"},
			{Symbol: "OLDUSDT", Status: "BREAK"},
		},
		futures: []domain.FuturesInstrument{
			{Symbol: "BTCUSDT", ContractType: "PERPETUAL", BaseAsset: "BTC", QuoteAsset: "USDT"},
			{Symbol: "1000PEPEUSDT", ContractType: "PERPETUAL", BaseAsset: "1000PEPE", QuoteAsset: "USDT"},
			{Symbol: "BTCUSDT_250926", ContractType: "CURRENT_QUARTER", BaseAsset: "BTC", QuoteAsset: "USDT"},
		},
		tickers: []domain.TickerRecord{
			{Symbol: "BTCUSDT", LastPrice: 65000.5, PriceChangePercent: 2.3},
			{Symbol: "1000PEPEUSDT", LastPrice: 0.012, PriceChangePercent: -1.5},
			{Symbol: "BTCUSDC", LastPrice: 65001, PriceChangePercent: 2.2},
		},
		funding: []domain.FundingRecord{
			{Symbol: "BTCUSDT", LastFundingRate: 0.0001, HasRate: true},
		},
		listings: []domain.MarketListing{
			{Symbol: "BTCUSDT", MarketCap: 1e12, FullyDilutedMarketCap: 1.1e12},
			{Symbol: "pepeusdt", MarketCap: 5e9, FullyDilutedMarketCap: 5e9},
		},
	}
}

type recordingSink struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (s *recordingSink) Publish(_ context.Context, _ domain.Snapshot, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

func warmRefs(t *testing.T, feed *fakeFeed) *usecase.ReferenceData {
	t.Helper()
	ctx := context.Background()
	refs := usecase.NewReferenceData(feed)
	_, err := refs.RefreshSpot(ctx)
	require.NoError(t, err)
	_, err = refs.RefreshFutures(ctx)
	require.NoError(t, err)
	_, err = refs.RefreshMarketData(ctx)
	require.NoError(t, err)
	return refs
}

type memoryStore struct {
	mu        sync.Mutex
	saved     map[time.Time]domain.Snapshot
	saveErr   error
	deleteErr error
	cutoff    time.Time
	compacted int
}

func (m *memoryStore) SaveSnapshot(ctx context.Context, snap domain.Snapshot, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.saved == nil {
		m.saved = make(map[time.Time]domain.Snapshot)
	}
	m.saved[at] = snap
	return nil
}

func (m *memoryStore) ListHistory(ctx context.Context, symbol string, limit int) ([]domain.HistoryRow, error) {
	return nil, nil
}

func (m *memoryStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	m.cutoff = cutoff
	return 42, nil
}

func (m *memoryStore) Compact(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compacted++
	return nil
}

func (m *memoryStore) Close() error { return nil }
