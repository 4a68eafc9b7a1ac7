package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vitos/perp_board/internal/domain"
	"go.uber.org/zap"
)

// Intervals are the periods of the independent refresh actions.
// A zero History disables history recording.
type Intervals struct {
	Spot       time.Duration
	Futures    time.Duration
	MarketData time.Duration
	Snapshot   time.Duration
	History    time.Duration
}

func DefaultIntervals() Intervals {
	return Intervals{
		Spot:       5 * time.Minute,
		Futures:    5 * time.Minute,
		MarketData: 5 * time.Minute,
		Snapshot:   1 * time.Second,
		History:    1 * time.Minute,
	}
}

// WarmupConfig bounds the initial population of the reference caches.
type WarmupConfig struct {
	Timeout    time.Duration // total budget for all three caches
	RetryDelay time.Duration
}

// job is one periodic action. A tick that finds the previous run still in
// flight is skipped.
type job struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
	running  atomic.Bool
	skipped  atomic.Int64
}

func (j *job) tick(ctx context.Context, logger *zap.Logger) {
	if !j.running.CompareAndSwap(false, true) {
		j.skipped.Add(1)
		logger.Debug("Previous run still in flight, skipping tick", zap.String("job", j.name))
		return
	}
	defer j.running.Store(false)

	start := time.Now()
	if err := j.run(ctx); err != nil {
		logger.Error("Refresh failed",
			zap.String("job", j.name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
	}
}

// Scheduler drives the cache refreshes, snapshot builds and history
// recording on independent tickers.
type Scheduler struct {
	board     *BoardService
	refs      *ReferenceData
	recorder  *HistoryRecorder
	intervals Intervals
	warmup    WarmupConfig
	logger    *zap.Logger

	jobs   []*job
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler builds a scheduler. recorder may be nil.
func NewScheduler(board *BoardService, recorder *HistoryRecorder, intervals Intervals, warmup WarmupConfig, logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		board:     board,
		refs:      board.Refs(),
		recorder:  recorder,
		intervals: intervals,
		warmup:    warmup,
		logger:    logger,
	}

	s.jobs = []*job{
		{name: "spot", interval: intervals.Spot, run: s.refreshSpot},
		{name: "futures", interval: intervals.Futures, run: s.refreshFutures},
		{name: "market_data", interval: intervals.MarketData, run: s.refreshMarketData},
		{name: "snapshot", interval: intervals.Snapshot, run: board.RefreshSnapshot},
	}
	if recorder != nil && intervals.History > 0 {
		s.jobs = append(s.jobs, &job{name: "history", interval: intervals.History, run: recorder.Record})
	}
	return s
}

func (s *Scheduler) refreshSpot(ctx context.Context) error {
	n, err := s.refs.RefreshSpot(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("Spot symbols refreshed", zap.Int("count", n))
	return nil
}

func (s *Scheduler) refreshFutures(ctx context.Context) error {
	n, err := s.refs.RefreshFutures(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("Perpetual contracts refreshed", zap.Int("count", n))
	return nil
}

func (s *Scheduler) refreshMarketData(ctx context.Context) error {
	n, err := s.refs.RefreshMarketData(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("Market data refreshed", zap.Int("count", n))
	return nil
}

// Start populates spot, futures and market data (in that order), builds the
// first snapshot and then starts the periodic loops. It returns
// domain.ErrNotReady if a cache could not be populated within the warmup
// budget; the loops are started regardless.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	warmErr := s.Warmup(ctx)
	if err := s.board.RefreshSnapshot(ctx); err != nil {
		s.logger.Error("Initial snapshot build failed", zap.Error(err))
	}

	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}

	s.logger.Info("Scheduler started",
		zap.Duration("snapshot_interval", s.intervals.Snapshot),
		zap.Duration("spot_interval", s.intervals.Spot),
		zap.Duration("futures_interval", s.intervals.Futures),
		zap.Duration("market_data_interval", s.intervals.MarketData),
		zap.Int("jobs", len(s.jobs)))

	return warmErr
}

// Warmup refreshes spot, futures and market data in that order, then keeps
// retrying only the caches that failed until all are populated or the warmup
// budget runs out. One failing feed never holds back the others.
func (s *Scheduler) Warmup(ctx context.Context) error {
	if s.warmup.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.warmup.Timeout)
		defer cancel()
	}

	delay := s.warmup.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}

	pending := []*job{s.jobs[0], s.jobs[1], s.jobs[2]}
	for {
		failed := pending[:0]
		for _, j := range pending {
			if err := j.run(ctx); err != nil {
				s.logger.Error("Warmup refresh failed", zap.String("job", j.name), zap.Error(err))
				failed = append(failed, j)
			}
		}
		if len(failed) == 0 {
			return nil
		}
		pending = failed

		select {
		case <-ctx.Done():
			return domain.ErrNotReady
		case <-time.After(delay):
		}
	}
}

func (s *Scheduler) loop(ctx context.Context, j *job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				j.tick(ctx, s.logger)
			}()
		}
	}
}

// Stop cancels the loops and waits for in-flight runs to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
