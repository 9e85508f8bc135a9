package client

import (
	"context"
	"sync/atomic"
	"time"

	"ptc_mining/internal/domain"
	"ptc_mining/internal/logger"
)

// kickDebounce batches bursts of mutations into one sync pass.
const kickDebounce = 2 * time.Second

// Syncer reconciles the device snapshot with the server: periodically, on
// reconnect, and shortly after any local mutation. A pass already in flight
// absorbs any overlapping trigger.
type Syncer struct {
	controller *Controller
	remote     RemoteStore
	net        Connectivity
	interval   time.Duration

	syncing atomic.Bool
	kick    chan struct{}
}

func NewSyncer(controller *Controller, remote RemoteStore, net Connectivity, interval time.Duration) *Syncer {
	s := &Syncer{
		controller: controller,
		remote:     remote,
		net:        net,
		interval:   interval,
		kick:       make(chan struct{}, 1),
	}
	controller.SetKick(s.Kick)
	return s
}

// Kick requests a sync pass soon. Never blocks.
func (s *Syncer) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Sync runs one reconciliation pass. Offline and overlapping calls are
// no-ops; transient failures are logged and left for the next pass.
func (s *Syncer) Sync(ctx context.Context) error {
	if !s.syncing.CompareAndSwap(false, true) {
		return nil
	}
	defer s.syncing.Store(false)

	if !s.net.Online() {
		return nil
	}

	local := s.controller.Snapshot()
	merged, err := s.remote.Sync(ctx, local)
	if err != nil {
		if domain.IsTransient(err) {
			logger.Debug("sync deferred", "error", err)
			return nil
		}
		return err
	}

	if err := s.controller.applySynced(local, merged); err != nil {
		return err
	}

	logger.Debug("sync applied",
		"coins", merged.TotalCoins, "synced_at", merged.SyncedAt)
	return nil
}

// Run drives the sync triggers until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// catch up immediately on start
	if err := s.Sync(ctx); err != nil {
		logger.Error("initial sync failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if err := s.Sync(ctx); err != nil {
				logger.Error("periodic sync failed", "error", err)
			}

		case online := <-s.net.Changes():
			if online {
				if err := s.Sync(ctx); err != nil {
					logger.Error("reconnect sync failed", "error", err)
				}
			}

		case <-s.kick:
			timer := time.NewTimer(kickDebounce)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			if err := s.Sync(ctx); err != nil {
				logger.Error("sync failed", "error", err)
			}
		}
	}
}
