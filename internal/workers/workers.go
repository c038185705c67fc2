package workers

import (
	"context"
	"time"

	"launchPadAPI/internal/launch"
	"launchPadAPI/internal/logger"
)

// Finalizer closes out a competition week. Implementations must be idempotent:
// the worker may fire many times against an already finalized week.
type Finalizer interface {
	FinalizePreviousWeek(ctx context.Context) (*launch.FinalizeResult, error)
}

// SnapshotBuilder rebuilds the leaderboard cache wholesale.
type SnapshotBuilder interface {
	RebuildSnapshot(ctx context.Context) error
}

// StartFinalizeWorker periodically finalizes the previous ISO week. The check
// interval can be short: once a week is finalized, further calls are structured
// no-ops. Runs until ctx is cancelled.
func StartFinalizeWorker(ctx context.Context, finalizer Finalizer, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.WithField("interval", interval.String()).Info("finalize worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info("finalize worker shutdown")
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, time.Minute)
			result, err := finalizer.FinalizePreviousWeek(runCtx)
			cancel()
			if err != nil {
				log.WithError(err).Error("week finalization failed")
				continue
			}
			if result.Success {
				log.WithField("winners", len(result.Winners)).Info("week finalized by worker")
			}
		}
	}
}

// StartSnapshotWorker rebuilds the leaderboard snapshot on a fixed interval.
// One rebuild runs immediately so a fresh deployment serves a snapshot without
// waiting a full interval. Runs until ctx is cancelled.
func StartSnapshotWorker(ctx context.Context, builder SnapshotBuilder, interval time.Duration, log *logger.Logger) {
	rebuild := func() {
		runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		if err := builder.RebuildSnapshot(runCtx); err != nil {
			log.WithError(err).Error("snapshot rebuild failed")
		}
	}

	log.WithField("interval", interval.String()).Info("snapshot worker started")
	rebuild()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("snapshot worker shutdown")
			return
		case <-ticker.C:
			rebuild()
		}
	}
}
