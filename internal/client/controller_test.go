package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ptc_mining/internal/domain"
)

type fakeCache struct {
	mu   sync.Mutex
	snap domain.CacheSnapshot
}

func (f *fakeCache) Load(userID int64) (domain.CacheSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := f.snap
	snap.UserID = userID
	return snap, nil
}

func (f *fakeCache) Save(snap domain.CacheSnapshot) (domain.CacheSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = domain.MergeSnapshots(f.snap, snap)
	return f.snap, nil
}

func (f *fakeCache) Overwrite(snap domain.CacheSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = snap
	return nil
}

type fakeRemote struct {
	mu           sync.Mutex
	startSession *domain.MiningSession
	startErr     error
	completeErr  error
	completed    []int64
	cancelled    []int64
	syncResult   domain.CacheSnapshot
	syncErr      error
	syncCalls    int
}

func (f *fakeRemote) StartMining(context.Context) (*domain.MiningSession, error) {
	return f.startSession, f.startErr
}

func (f *fakeRemote) CompleteMining(_ context.Context, id int64) (*domain.MiningSession, error) {
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	f.completed = append(f.completed, id)
	return &domain.MiningSession{ID: id, Status: domain.SessionCompleted, Amount: 0.2}, nil
}

func (f *fakeRemote) CancelMining(_ context.Context, id int64) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeRemote) AdBuff(context.Context) (*domain.User, error) {
	return nil, domain.Transient(errors.New("offline"))
}

func (f *fakeRemote) Sync(_ context.Context, snap domain.CacheSnapshot) (domain.CacheSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncCalls++
	if f.syncErr != nil {
		return domain.CacheSnapshot{}, f.syncErr
	}
	return f.syncResult, nil
}

func (f *fakeRemote) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncCalls
}

type fakeNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (f *fakeNotifier) Notify(title, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
}

func (f *fakeNotifier) has(title string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.titles {
		if t == title {
			return true
		}
	}
	return false
}

type fakeAds struct{ rewarded bool }

func (f fakeAds) Play(context.Context) (bool, error) { return f.rewarded, nil }

type fakeNet struct {
	mu      sync.Mutex
	online  bool
	changes chan bool
}

func newFakeNet(online bool) *fakeNet {
	return &fakeNet{online: online, changes: make(chan bool, 1)}
}

func (f *fakeNet) Online() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

func (f *fakeNet) Changes() <-chan bool { return f.changes }

func (f *fakeNet) set(online bool) {
	f.mu.Lock()
	f.online = online
	f.mu.Unlock()
	f.changes <- online
}

func newTestController(t *testing.T, cache *fakeCache, remote *fakeRemote, online bool) (*Controller, *fakeNotifier) {
	t.Helper()
	notifier := &fakeNotifier{}
	c, err := NewController(ControllerConfig{
		UserID:              1,
		BaseRate:            0.1,
		PermanentMultiplier: 1.2,
		CycleDuration:       24 * time.Hour,
		BuffDuration:        2 * time.Hour,
	}, cache, remote, notifier, fakeAds{rewarded: true}, newFakeNet(online))
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c, notifier
}

func TestStartMiningOffline(t *testing.T) {
	cache := &fakeCache{}
	c, notifier := newTestController(t, cache, &fakeRemote{}, false)

	if err := c.StartMining(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	snap := c.Snapshot()
	if snap.MiningStartTime == 0 || snap.MiningEndTime == 0 {
		t.Fatal("expected session timestamps to be set")
	}
	wantEnd := snap.MiningStartTime + (24 * time.Hour).Milliseconds()
	if snap.MiningEndTime != wantEnd {
		t.Fatalf("end = %d, want %d", snap.MiningEndTime, wantEnd)
	}
	if c.locked != 1.2 {
		t.Fatalf("locked = %v, want permanent 1.2", c.locked)
	}
	if !notifier.has("Mining Started") {
		t.Fatal("expected start notification")
	}

	if err := c.StartMining(context.Background()); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("second start = %v, want ErrConflict", err)
	}
}

func TestStartMiningLocksBuffedMultiplier(t *testing.T) {
	cache := &fakeCache{snap: domain.CacheSnapshot{
		AdBuffExpiry: time.Now().Add(time.Hour).UnixMilli(),
	}}
	c, _ := newTestController(t, cache, &fakeRemote{}, false)

	if err := c.StartMining(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	// 1.2 * 5 = 6.0, under the cap
	if c.locked != 6.0 {
		t.Fatalf("locked = %v, want 6.0", c.locked)
	}
}

func TestStartMiningAdoptsServerSession(t *testing.T) {
	start := time.Now().Truncate(time.Millisecond)
	remote := &fakeRemote{startSession: &domain.MiningSession{
		ID:         42,
		StartTime:  start,
		EndTime:    start.Add(24 * time.Hour),
		Multiplier: 1.5,
		Status:     domain.SessionActive,
	}}
	c, _ := newTestController(t, &fakeCache{}, remote, true)

	if err := c.StartMining(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if c.sessionID != 42 {
		t.Fatalf("sessionID = %d, want 42", c.sessionID)
	}
	if c.locked != 1.5 {
		t.Fatalf("locked = %v, want server's 1.5", c.locked)
	}
	if got := c.Snapshot().MiningStartTime; got != start.UnixMilli() {
		t.Fatalf("start = %d, want server's %d", got, start.UnixMilli())
	}
}

func TestCompleteDue(t *testing.T) {
	cache := &fakeCache{}
	c, notifier := newTestController(t, cache, &fakeRemote{}, false)

	if err := c.StartMining(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	// not yet due
	done, err := c.CompleteDue(context.Background(), time.Now())
	if err != nil || done {
		t.Fatalf("premature completion: done=%v err=%v", done, err)
	}

	done, err = c.CompleteDue(context.Background(), time.Now().Add(25*time.Hour))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !done {
		t.Fatal("expected completion")
	}

	snap := c.Snapshot()
	if snap.MiningStartTime != 0 || snap.MiningEndTime != 0 {
		t.Fatal("session should be cleared after completion")
	}
	// 0.1 * 1.2 = 0.12
	if snap.TotalCoins != 0.12 {
		t.Fatalf("coins = %v, want 0.12", snap.TotalCoins)
	}
	if !notifier.has("Mining Complete") {
		t.Fatal("expected completion notification")
	}

	// idempotent: a second pass is a no-op
	done, err = c.CompleteDue(context.Background(), time.Now().Add(26*time.Hour))
	if err != nil || done {
		t.Fatalf("second completion: done=%v err=%v", done, err)
	}
	if got := c.Snapshot().TotalCoins; got != 0.12 {
		t.Fatalf("coins after second pass = %v, want 0.12", got)
	}
}

func TestCompleteDueAlreadyCreditedServerSide(t *testing.T) {
	start := time.Now().Add(-25 * time.Hour)
	remote := &fakeRemote{
		startSession: &domain.MiningSession{
			ID: 7, StartTime: start, EndTime: start.Add(24 * time.Hour), Multiplier: 1.2,
		},
		completeErr: domain.ErrConflict,
	}
	c, _ := newTestController(t, &fakeCache{}, remote, true)

	if err := c.StartMining(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	done, err := c.CompleteDue(context.Background(), time.Now())
	if err != nil || !done {
		t.Fatalf("complete: done=%v err=%v", done, err)
	}

	// server already paid out; no local double-credit
	if got := c.Snapshot().TotalCoins; got != 0 {
		t.Fatalf("coins = %v, want 0 (server owns the credit)", got)
	}
}

func TestCancelMining(t *testing.T) {
	remote := &fakeRemote{startSession: &domain.MiningSession{
		ID: 9, StartTime: time.Now(), EndTime: time.Now().Add(24 * time.Hour), Multiplier: 1.2,
	}}
	c, notifier := newTestController(t, &fakeCache{}, remote, true)

	if err := c.CancelMining(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("cancel without session = %v, want ErrNotFound", err)
	}

	if err := c.StartMining(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.CancelMining(context.Background()); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if len(remote.cancelled) != 1 || remote.cancelled[0] != 9 {
		t.Fatalf("cancelled = %v, want [9]", remote.cancelled)
	}
	snap := c.Snapshot()
	if snap.MiningStartTime != 0 || snap.TotalCoins != 0 {
		t.Fatal("cancel must clear the session without payout")
	}
	if !notifier.has("Mining Cancelled") {
		t.Fatal("expected cancel notification")
	}
}

func TestActivateAdBuffStacking(t *testing.T) {
	cache := &fakeCache{}
	c, notifier := newTestController(t, cache, &fakeRemote{}, false)

	if err := c.ActivateAdBuff(context.Background()); err != nil {
		t.Fatalf("activate: %v", err)
	}
	first := c.Snapshot().AdBuffExpiry
	if first == 0 {
		t.Fatal("expected buff expiry to be set")
	}

	if err := c.ActivateAdBuff(context.Background()); err != nil {
		t.Fatalf("stack: %v", err)
	}
	second := c.Snapshot().AdBuffExpiry

	gain := second - first
	want := (2 * time.Hour).Milliseconds()
	// the second activation extends the existing expiry by the buff duration
	if gain < want-100 || gain > want+100 {
		t.Fatalf("stack gain = %dms, want ~%dms", gain, want)
	}
	if !notifier.has("Boost Activated") {
		t.Fatal("expected buff notification")
	}
}

func TestActivateAdBuffNotRewarded(t *testing.T) {
	notifier := &fakeNotifier{}
	c, err := NewController(ControllerConfig{
		UserID: 1, BaseRate: 0.1, PermanentMultiplier: 1.0,
		CycleDuration: 24 * time.Hour, BuffDuration: 2 * time.Hour,
	}, &fakeCache{}, &fakeRemote{}, notifier, fakeAds{rewarded: false}, newFakeNet(false))
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	if err := c.ActivateAdBuff(context.Background()); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if got := c.Snapshot().AdBuffExpiry; got != 0 {
		t.Fatalf("expiry = %d, want 0 when ad not rewarded", got)
	}
}

func TestNextExpiryMillisHorizonCap(t *testing.T) {
	now := time.Now()

	// expiry already 23h out; stacking may only reach the 24h horizon
	current := now.Add(23 * time.Hour).UnixMilli()
	got := nextExpiryMillis(now, current, 2*time.Hour)
	want := now.Add(24 * time.Hour).UnixMilli()
	if got != want {
		t.Fatalf("capped expiry = %d, want %d", got, want)
	}

	// expired buff behaves like a fresh one
	stale := now.Add(-time.Minute).UnixMilli()
	got = nextExpiryMillis(now, stale, 2*time.Hour)
	want = now.Add(2 * time.Hour).UnixMilli()
	if got != want {
		t.Fatalf("fresh expiry = %d, want %d", got, want)
	}
}

func TestApplySyncedServerCompletedSession(t *testing.T) {
	cache := &fakeCache{}
	c, _ := newTestController(t, cache, &fakeRemote{}, false)

	if err := c.StartMining(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	local := c.Snapshot()

	// server swept the session: cleared timestamps, credited coins
	server := local
	server.MiningStartTime = 0
	server.MiningEndTime = 0
	server.TotalCoins = 0.12
	server.SyncedAt = time.Now().UnixMilli()

	if err := c.applySynced(local, server); err != nil {
		t.Fatalf("applySynced: %v", err)
	}

	snap := c.Snapshot()
	if snap.MiningStartTime != 0 {
		t.Fatal("server-cleared session must clear locally")
	}
	if snap.TotalCoins != 0.12 {
		t.Fatalf("coins = %v, want 0.12", snap.TotalCoins)
	}
	if c.sessionID != 0 {
		t.Fatalf("sessionID = %d, want 0", c.sessionID)
	}
}

func TestApplySyncedKeepsMidFlightSession(t *testing.T) {
	cache := &fakeCache{}
	c, _ := newTestController(t, cache, &fakeRemote{}, false)

	// snapshot taken before the session started
	requested := c.Snapshot()

	if err := c.StartMining(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	localStart := c.Snapshot().MiningStartTime

	server := requested
	server.TotalCoins = 3.5
	server.SyncedAt = time.Now().UnixMilli()

	if err := c.applySynced(requested, server); err != nil {
		t.Fatalf("applySynced: %v", err)
	}

	snap := c.Snapshot()
	if snap.MiningStartTime != localStart {
		t.Fatal("mid-flight session must survive the sync result")
	}
	if snap.TotalCoins != 3.5 {
		t.Fatalf("coins = %v, want server's 3.5", snap.TotalCoins)
	}
}
