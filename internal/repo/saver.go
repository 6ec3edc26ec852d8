// Package repo – periodic ledger persistence
//
// The Saver flushes the in-memory ledger to SQLite on a fixed interval and
// once more at shutdown. A failed save is logged and retried on the next
// scheduled tick, never immediately; no save failure is fatal.
package repo

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/arenalk/bookingbot/internal/domain"
)

// SnapshotSource is the slice of the ledger the saver needs.
type SnapshotSource interface {
	Snapshot() []domain.Booking
}

// Saver persists ledger snapshots on a fixed interval.
type Saver struct {
	DB       *gorm.DB
	Source   SnapshotSource
	Interval time.Duration
	Log      zerolog.Logger
}

// Run blocks, saving every Interval until ctx is cancelled, then performs a
// final save so shutdown never loses more than in-flight work.
func (s *Saver) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.save(ctx)
		case <-ctx.Done():
			// Final flush with a fresh context; the loop context is gone.
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			s.save(flushCtx)
			cancel()
			return
		}
	}
}

func (s *Saver) save(ctx context.Context) {
	snap := s.Source.Snapshot()
	if err := SaveSnapshot(ctx, s.DB, snap); err != nil {
		s.Log.Error().Err(err).Int("bookings", len(snap)).Msg("ledger snapshot save failed")
		return
	}
	s.Log.Debug().Int("bookings", len(snap)).Msg("ledger snapshot saved")
}
