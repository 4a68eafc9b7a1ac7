package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/perp_board/internal/usecase"
	"go.uber.org/zap"
)

func TestBoardService_InitialState(t *testing.T) {
	board := usecase.NewBoardService(&fakeFeed{}, usecase.NewReferenceData(&fakeFeed{}), usecase.BuildOptions{}, zap.NewNop())

	snap, payload := board.Current()
	assert.NotNil(t, snap)
	assert.Empty(t, snap)
	assert.Equal(t, "[]", string(payload))
	assert.True(t, board.BuiltAt().IsZero())
}

func TestBoardService_RefreshPublishes(t *testing.T) {
	feed := btcFeed()
	good := &recordingSink{}
	failing := &recordingSink{err: errors.New("sink down")}
	board := usecase.NewBoardService(feed, warmRefs(t, feed), usecase.BuildOptions{}, zap.NewNop(), failing)
	board.AddSink(good)

	before := time.Now()
	require.NoError(t, board.RefreshSnapshot(context.Background()))

	snap, payload := board.Current()
	require.Len(t, snap, 2)
	assert.Equal(t, "BTCUSDT", snap[0].Symbol)
	assert.Equal(t, "1000PEPEUSDT", snap[1].Symbol)
	assert.False(t, board.BuiltAt().Before(before))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "BTC", decoded[0]["name"])
	assert.Equal(t, 0.0001, decoded[0]["fundingRate"])
	assert.Equal(t, 0.0, decoded[1]["fundingRate"])
	assert.Equal(t, false, decoded[1]["hasFundingRate"])

	// A failing sink does not stop delivery to the next one.
	assert.Equal(t, 1, failing.count())
	require.Equal(t, 1, good.count())
	assert.Equal(t, payload, good.payloads[0])
}

func TestBoardService_FetchFailureKeepsSnapshot(t *testing.T) {
	feed := btcFeed()
	sink := &recordingSink{}
	board := usecase.NewBoardService(feed, warmRefs(t, feed), usecase.BuildOptions{}, zap.NewNop(), sink)

	require.NoError(t, board.RefreshSnapshot(context.Background()))
	_, before := board.Current()

	feed.set(func(f *fakeFeed) { f.fundingErr = errors.New("timeout") })
	err := board.RefreshSnapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch funding rates")

	_, after := board.Current()
	assert.Equal(t, before, after)
	assert.Equal(t, 1, sink.count())

	feed.set(func(f *fakeFeed) {
		f.fundingErr = nil
		f.tickersErr = errors.New("connection reset")
	})
	err = board.RefreshSnapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch tickers")
	assert.Equal(t, 1, sink.count())
}

func TestBoardService_UsesRefreshedCache(t *testing.T) {
	ctx := context.Background()
	feed := btcFeed()
	feed.spotErr = errors.New("spot down")
	refs := usecase.NewReferenceData(feed)
	_, err := refs.RefreshSpot(ctx)
	require.Error(t, err)
	_, err = refs.RefreshFutures(ctx)
	require.NoError(t, err)
	_, err = refs.RefreshMarketData(ctx)
	require.NoError(t, err)

	board := usecase.NewBoardService(feed, refs, usecase.BuildOptions{}, zap.NewNop())
	require.NoError(t, board.RefreshSnapshot(ctx))
	snap, _ := board.Current()
	require.NotEmpty(t, snap)
	assert.False(t, snap[0].HasSpotMarket)

	feed.set(func(f *fakeFeed) { f.spotErr = nil })
	_, err = refs.RefreshSpot(ctx)
	require.NoError(t, err)

	require.NoError(t, board.RefreshSnapshot(ctx))
	snap, _ = board.Current()
	assert.True(t, snap[0].HasSpotMarket)
}
