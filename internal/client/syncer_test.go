package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"ptc_mining/internal/domain"
)

func newTestSyncer(t *testing.T, remote *fakeRemote, net *fakeNet) (*Syncer, *Controller) {
	t.Helper()
	c, err := NewController(ControllerConfig{
		UserID: 1, BaseRate: 0.1, PermanentMultiplier: 1.0,
		CycleDuration: 24 * time.Hour, BuffDuration: 2 * time.Hour,
	}, &fakeCache{}, remote, &fakeNotifier{}, fakeAds{}, net)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return NewSyncer(c, remote, net, time.Hour), c
}

func TestSyncOfflineIsNoop(t *testing.T) {
	remote := &fakeRemote{}
	s, _ := newTestSyncer(t, remote, newFakeNet(false))

	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if remote.syncCalls != 0 {
		t.Fatalf("syncCalls = %d, want 0 while offline", remote.syncCalls)
	}
}

func TestSyncTransientFailureIsDeferred(t *testing.T) {
	remote := &fakeRemote{syncErr: domain.Transient(errors.New("connection refused"))}
	s, c := newTestSyncer(t, remote, newFakeNet(true))

	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("transient sync failure must not surface: %v", err)
	}
	if got := c.Snapshot().SyncedAt; got != 0 {
		t.Fatalf("SyncedAt = %d, want unchanged 0", got)
	}
}

func TestSyncAppliesServerResult(t *testing.T) {
	syncedAt := time.Now().UnixMilli()
	remote := &fakeRemote{syncResult: domain.CacheSnapshot{
		UserID:     1,
		TotalCoins: 5.4,
		SyncedAt:   syncedAt,
	}}
	s, c := newTestSyncer(t, remote, newFakeNet(true))

	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	snap := c.Snapshot()
	if snap.TotalCoins != 5.4 {
		t.Fatalf("coins = %v, want 5.4", snap.TotalCoins)
	}
	if snap.SyncedAt != syncedAt {
		t.Fatalf("SyncedAt = %d, want %d", snap.SyncedAt, syncedAt)
	}
}

func TestSyncRunsOnReconnect(t *testing.T) {
	remote := &fakeRemote{syncResult: domain.CacheSnapshot{UserID: 1}}
	net := newFakeNet(false)
	s, _ := newTestSyncer(t, remote, net)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// initial pass skipped while offline
	time.Sleep(50 * time.Millisecond)
	if n := remote.calls(); n != 0 {
		t.Fatalf("syncCalls = %d before reconnect, want 0", n)
	}

	net.set(true)

	deadline := time.After(2 * time.Second)
	for remote.calls() == 0 {
		select {
		case <-deadline:
			t.Fatal("no sync pass after reconnect")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestKickNeverBlocks(t *testing.T) {
	remote := &fakeRemote{}
	s, _ := newTestSyncer(t, remote, newFakeNet(true))

	// no Run loop draining the channel; repeated kicks must not block
	for i := 0; i < 10; i++ {
		s.Kick()
	}
}
