// Package worker runs snapshot pushes in the background so the caller that
// requested a sync never waits on a third-party endpoint.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"financepro/internal/amqp"
	"financepro/internal/backend"
	applog "financepro/internal/log"
	"financepro/internal/syncer"
)

// SyncWorker consumes sync requests and pushes the persisted snapshot to the
// sync target. It reads the snapshot from the backend on every push, so it
// always sends whatever state is current when the request is handled.
type SyncWorker struct {
	store    backend.Store
	target   syncer.Target
	interval time.Duration
	logger   *applog.Logger
}

func NewSyncWorker(store backend.Store, target syncer.Target, interval time.Duration, logger *applog.Logger) *SyncWorker {
	return &SyncWorker{
		store:    store,
		target:   target,
		interval: interval,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleSyncRequest processes one queued request.
func (w *SyncWorker) HandleSyncRequest(ctx context.Context, msg *amqp.SyncRequestMessage) error {
	w.logger.InfoContext(ctx, "Processing sync request",
		"reason", msg.Reason,
		"requested_at", msg.RequestedAt)
	return w.PushNow(ctx)
}

// PushNow loads the persisted snapshot, pushes it, and stamps the last-sync
// marker when the push dispatched cleanly. With no endpoint configured it
// returns ErrNoEndpoint without touching the network.
func (w *SyncWorker) PushNow(ctx context.Context) error {
	snap, err := w.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	receipt, err := w.target.Push(ctx, snap)
	if err != nil {
		return fmt.Errorf("push snapshot: %w", err)
	}

	// Overlapping pushes and pulls are not coordinated; the last writer of
	// the last-sync marker wins.
	snap.LastSync = receipt.DispatchedAt.Format("2006-01-02 15:04:05")
	if err := w.store.Save(ctx, snap); err != nil {
		w.logger.ErrorContext(ctx, "Failed to stamp last sync",
			applog.FieldError, err)
		// The push itself went out; don't requeue for a local bookkeeping
		// failure.
	}

	w.logger.InfoContext(ctx, "Sync push completed",
		applog.FieldOperation, applog.OpPush,
		"mode", receipt.Mode(),
		applog.FieldStatusCode, receipt.StatusCode)

	return nil
}

// Run consumes queued requests and, when an interval is configured, performs
// periodic backup pushes. It returns when the context is cancelled or the
// consume loop fails.
func (w *SyncWorker) Run(ctx context.Context, client *amqp.Client) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return client.ConsumeSyncRequests(ctx, w.HandleSyncRequest)
	})

	if w.interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(w.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					if err := w.PushNow(ctx); err != nil {
						if errors.Is(err, syncer.ErrNoEndpoint) {
							w.logger.Debug("Skipping periodic push, no endpoint configured")
							continue
						}
						w.logger.ErrorContext(ctx, "Periodic push failed",
							applog.FieldError, err)
					}
				}
			}
		})
	}

	return g.Wait()
}
