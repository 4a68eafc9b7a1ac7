package usecase_test

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/perp_board/internal/domain"
	"github.com/vitos/perp_board/internal/infrastructure/exchange"
	"github.com/vitos/perp_board/internal/usecase"
)

func TestReferenceData_Empty(t *testing.T) {
	refs := usecase.NewReferenceData(&fakeFeed{})

	assert.False(t, refs.Ready())
	assert.NotNil(t, refs.SpotSymbols())
	assert.NotNil(t, refs.Futures())
	assert.NotNil(t, refs.MarketData())
	assert.Equal(t, usecase.ReferenceStats{}, refs.Stats())
}

func TestReferenceData_RefreshFilters(t *testing.T) {
	ctx := context.Background()
	feed := btcFeed()
	feed.listings = append(feed.listings,
		domain.MarketListing{Symbol: "", MarketCap: 1},
		domain.MarketListing{Symbol: "badusdt", MarketCap: -5, FullyDilutedMarketCap: math.NaN(), MapperName: "BAD"},
	)
	refs := usecase.NewReferenceData(feed)

	n, err := refs.RefreshSpot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, refs.SpotSymbols().Has("BTCUSDT"))
	assert.False(t, refs.SpotSymbols().Has("OLDUSDT"))

	n, err = refs.RefreshFutures(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, domain.FuturesContract{BaseAsset: "1000PEPE", QuoteAsset: "USDT"}, refs.Futures()["1000PEPEUSDT"])
	_, ok := refs.Futures()["BTCUSDT_250926"]
	assert.False(t, ok)

	n, err = refs.RefreshMarketData(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	pepe, ok := refs.MarketData()["PEPEUSDT"]
	require.True(t, ok)
	assert.Equal(t, 5e9, pepe.MarketCap)

	bad, ok := refs.MarketData().Lookup("BADUSDT")
	require.True(t, ok)
	assert.Equal(t, 0.0, bad.MarketCap)
	assert.Equal(t, 0.0, bad.FullyDilutedValuation)
	assert.Equal(t, "BAD", bad.MapperName)

	assert.True(t, refs.Ready())
	assert.Equal(t, usecase.ReferenceStats{SpotSymbols: 2, Contracts: 2, MarketData: 3, Ready: true}, refs.Stats())
}

func TestReferenceData_FailureKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	feed := btcFeed()
	refs := warmRefs(t, feed)

	upstream := errors.New("503 service unavailable")
	feed.set(func(f *fakeFeed) {
		f.spotErr = upstream
		f.futures = nil
	})

	_, err := refs.RefreshSpot(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, upstream)
	assert.Len(t, refs.SpotSymbols(), 2)

	// Other caches keep refreshing independently.
	n, err := refs.RefreshFutures(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, refs.MarketData(), 2)

	feed.set(func(f *fakeFeed) {
		f.spotErr = nil
		f.spot = []domain.SpotInstrument{{Symbol: "ETHUSDT", Status: "TRADING"}}
	})
	n, err = refs.RefreshSpot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, refs.SpotSymbols().Has("ETHUSDT"))
	assert.False(t, refs.SpotSymbols().Has("BTCUSDT"))
}

func TestReferenceData_ReplacedNotMutated(t *testing.T) {
	ctx := context.Background()
	feed := btcFeed()
	refs := usecase.NewReferenceData(feed)

	_, err := refs.RefreshSpot(ctx)
	require.NoError(t, err)
	held := refs.SpotSymbols()

	feed.set(func(f *fakeFeed) { f.spot = nil })
	_, err = refs.RefreshSpot(ctx)
	require.NoError(t, err)

	assert.Len(t, held, 2)
	assert.Len(t, refs.SpotSymbols(), 0)
}

func TestReferenceData_MaintenanceBodyKeepsPrevious(t *testing.T) {
	var maintenance atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if maintenance.Load() {
			w.Write([]byte(`{"code":0,"msg":"maintenance"}`))
			return
		}
		switch r.URL.Path {
		case "/api/v3/exchangeInfo":
			w.Write([]byte(`{"symbols":[{"symbol":"BTCUSDT","status":"TRADING"}]}`))
		case "/fapi/v1/exchangeInfo":
			w.Write([]byte(`{"symbols":[{"symbol":"BTCUSDT","contractType":"PERPETUAL","baseAsset":"BTC","quoteAsset":"USDT"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	refs := usecase.NewReferenceData(exchange.NewBinanceAdapter(srv.URL, srv.URL, srv.URL, time.Second))

	n, err := refs.RefreshSpot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = refs.RefreshFutures(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	maintenance.Store(true)

	_, err = refs.RefreshSpot(ctx)
	require.ErrorIs(t, err, exchange.ErrMissingField)
	_, err = refs.RefreshFutures(ctx)
	require.ErrorIs(t, err, exchange.ErrMissingField)

	assert.True(t, refs.SpotSymbols().Has("BTCUSDT"))
	assert.Contains(t, refs.Futures(), "BTCUSDT")
}
