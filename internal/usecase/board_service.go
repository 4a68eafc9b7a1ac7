package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vitos/perp_board/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// published is the current snapshot together with its serialized form.
type published struct {
	snap    domain.Snapshot
	payload []byte
	builtAt time.Time
}

// BoardService builds snapshots from the market feed and the reference
// caches and hands each one to the registered sinks.
type BoardService struct {
	feed    domain.MarketFeed
	refs    *ReferenceData
	opts    BuildOptions
	sinks   []domain.SnapshotSink
	logger  *zap.Logger
	current atomic.Pointer[published]
	timeNow func() time.Time
}

func NewBoardService(feed domain.MarketFeed, refs *ReferenceData, opts BuildOptions, logger *zap.Logger, sinks ...domain.SnapshotSink) *BoardService {
	s := &BoardService{
		feed:    feed,
		refs:    refs,
		opts:    opts,
		sinks:   sinks,
		logger:  logger,
		timeNow: time.Now,
	}
	s.current.Store(&published{snap: domain.Snapshot{}, payload: []byte("[]")})
	return s
}

// AddSink registers another snapshot consumer. It must be called before
// the scheduler starts.
func (s *BoardService) AddSink(sink domain.SnapshotSink) {
	s.sinks = append(s.sinks, sink)
}

// Refs exposes the reference caches the service reads from.
func (s *BoardService) Refs() *ReferenceData {
	return s.refs
}

// RefreshSnapshot fetches tickers and funding rates together, builds a new
// snapshot and publishes it. If either fetch fails nothing is replaced.
func (s *BoardService) RefreshSnapshot(ctx context.Context) error {
	var (
		tickers []domain.TickerRecord
		funding []domain.FundingRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tickers, err = s.feed.GetTickers(gctx)
		if err != nil {
			return fmt.Errorf("fetch tickers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		funding, err = s.feed.GetFundingRates(gctx)
		if err != nil {
			return fmt.Errorf("fetch funding rates: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	snap := BuildSnapshot(tickers, funding, BuildInputs{
		Spot:    s.refs.SpotSymbols(),
		Futures: s.refs.Futures(),
		Market:  s.refs.MarketData(),
	}, s.opts)

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	s.current.Store(&published{snap: snap, payload: payload, builtAt: s.timeNow()})

	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, snap, payload); err != nil {
			s.logger.Warn("Snapshot sink failed", zap.Error(err))
		}
	}
	return nil
}

// Current returns the latest snapshot and its serialized form. Before the
// first build it returns an empty snapshot and "[]".
func (s *BoardService) Current() (domain.Snapshot, []byte) {
	p := s.current.Load()
	return p.snap, p.payload
}

// BuiltAt is the time of the latest successful build, zero before the first.
func (s *BoardService) BuiltAt() time.Time {
	return s.current.Load().builtAt
}
