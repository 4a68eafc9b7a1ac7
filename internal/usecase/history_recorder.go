package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/vitos/perp_board/internal/domain"
	"go.uber.org/zap"
)

// HistoryRecorder copies the current snapshot into a HistoryStore.
type HistoryRecorder struct {
	board   *BoardService
	store   domain.HistoryStore
	logger  *zap.Logger
	timeNow func() time.Time
}

func NewHistoryRecorder(board *BoardService, store domain.HistoryStore, logger *zap.Logger) *HistoryRecorder {
	return &HistoryRecorder{
		board:   board,
		store:   store,
		logger:  logger,
		timeNow: time.Now,
	}
}

// Record saves the current snapshot. Empty snapshots are not written.
func (r *HistoryRecorder) Record(ctx context.Context) error {
	snap, _ := r.board.Current()
	if len(snap) == 0 {
		return nil
	}

	at := r.timeNow()
	if err := r.store.SaveSnapshot(ctx, snap, at); err != nil {
		return fmt.Errorf("save snapshot history: %w", err)
	}
	r.logger.Debug("Snapshot history recorded", zap.Int("records", len(snap)), zap.Time("at", at))
	return nil
}

// Prune deletes history older than retention and compacts the store.
func Prune(ctx context.Context, store domain.HistoryStore, retention time.Duration, now time.Time) (int64, error) {
	deleted, err := store.DeleteOlderThan(ctx, now.Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("delete old history: %w", err)
	}
	if err := store.Compact(ctx); err != nil {
		return deleted, fmt.Errorf("compact history: %w", err)
	}
	return deleted, nil
}
