package scheduler

import (
	"context"
	"time"

	"github.com/nodetec/notestack-sub002/internal/logger"
	"github.com/nodetec/notestack-sub002/internal/syncer"
)

// DraftSyncRunner runs the reconciliation engine periodically and on
// manual trigger.
type DraftSyncRunner struct {
	engine        *syncer.Engine
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewDraftSyncRunner creates a new draft sync runner
func NewDraftSyncRunner(
	engine *syncer.Engine,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *DraftSyncRunner {
	return &DraftSyncRunner{
		engine:        engine,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs one sync immediately, then syncs every interval or whenever
// the manual trigger fires. A failed sync is logged and retried on the
// next tick; endpoints being down is a normal condition, not a startup
// failure.
func (r *DraftSyncRunner) Start(ctx context.Context) error {
	if err := r.run(ctx); err != nil {
		r.logger.Warn("initial draft sync failed", logger.Error(err))
	}

	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := r.run(ctx); err != nil {
					r.logger.Error("periodic draft sync failed",
						logger.Error(err))
				}
			case <-r.manualTrigger:
				r.logger.Info("manual draft sync triggered")
				if err := r.run(ctx); err != nil {
					r.logger.Error("manual draft sync failed",
						logger.Error(err))
				}
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the runner
func (r *DraftSyncRunner) Stop() {
	close(r.stopCh)
}

func (r *DraftSyncRunner) run(ctx context.Context) error {
	res, err := r.engine.SyncDrafts(ctx)
	if err != nil {
		return err
	}
	r.logger.Debug("draft sync run finished",
		logger.Int("received", res.Received),
		logger.Int("updated", res.Updated))
	return nil
}
