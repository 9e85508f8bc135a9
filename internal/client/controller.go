package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"ptc_mining/internal/domain"
	"ptc_mining/internal/logger"
	"ptc_mining/internal/multiplier"
)

const buffStackHorizon = 24 * time.Hour

// Controller drives the device-side mining state machine. All state lives in
// the snapshot; the cache persists it and the syncer reconciles it with the
// server. Methods are safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	userID    int64
	baseRate  float64
	permanent float64

	cycleDuration time.Duration
	buffDuration  time.Duration

	snap domain.CacheSnapshot
	// sessionID is the server-issued id of the active session; zero when
	// the session was started offline and the server has not adopted it yet.
	sessionID int64
	// locked is the multiplier fixed at session start. Mid-cycle buff
	// changes never touch it.
	locked float64

	cache    LocalCache
	remote   RemoteStore
	notifier Notifier
	ads      AdPlayer
	net      Connectivity

	// kick asks the syncer for a near-term reconciliation pass.
	kick func()
}

type ControllerConfig struct {
	UserID              int64
	BaseRate            float64
	PermanentMultiplier float64
	CycleDuration       time.Duration
	BuffDuration        time.Duration
}

func NewController(cfg ControllerConfig, cache LocalCache, remote RemoteStore,
	notifier Notifier, ads AdPlayer, net Connectivity) (*Controller, error) {

	snap, err := cache.Load(cfg.UserID)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		userID:        cfg.UserID,
		baseRate:      cfg.BaseRate,
		permanent:     cfg.PermanentMultiplier,
		cycleDuration: cfg.CycleDuration,
		buffDuration:  cfg.BuffDuration,
		snap:          snap,
		cache:         cache,
		remote:        remote,
		notifier:      notifier,
		ads:           ads,
		net:           net,
		kick:          func() {},
	}

	// A session that survived a restart has lost its server id and its
	// locked multiplier; re-derive the lock from whether the buff covered
	// the start. The server's own record wins at the next sync.
	if snap.MiningStartTime > 0 {
		buffAtStart := snap.AdBuffExpiry > snap.MiningStartTime
		c.locked = multiplier.Effective(cfg.PermanentMultiplier, buffAtStart, multiplier.AdBuffValue)
	}

	return c, nil
}

// SetKick installs the syncer's wake-up hook.
func (c *Controller) SetKick(kick func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kick = kick
}

// Snapshot returns a copy of the current device state.
func (c *Controller) Snapshot() domain.CacheSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// MiningActive reports whether a cycle is in progress.
func (c *Controller) MiningActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.MiningStartTime > 0
}

// BuffActive reports whether the ad buff covers now.
func (c *Controller) BuffActive(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.AdBuffExpiry > now.UnixMilli()
}

// ToggleMining starts a cycle, or cancels the one in progress.
func (c *Controller) ToggleMining(ctx context.Context) error {
	if c.MiningActive() {
		return c.CancelMining(ctx)
	}
	return c.StartMining(ctx)
}

// StartMining opens a cycle, locking in the multiplier in force right now.
// Online it defers to the server's session; offline it records the cycle
// locally for the server to adopt at the next sync.
func (c *Controller) StartMining(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap.MiningStartTime > 0 {
		return domain.ErrConflict
	}

	now := time.Now()
	buffActive := c.snap.AdBuffExpiry > now.UnixMilli()
	locked := multiplier.Effective(c.permanent, buffActive, multiplier.AdBuffValue)

	start := now.UnixMilli()
	end := now.Add(c.cycleDuration).UnixMilli()
	sessionID := int64(0)

	if c.net.Online() {
		session, err := c.remote.StartMining(ctx)
		switch {
		case err == nil:
			sessionID = session.ID
			locked = session.Multiplier
			start = session.StartTime.UnixMilli()
			end = session.EndTime.UnixMilli()
		case errors.Is(err, domain.ErrConflict):
			return domain.ErrConflict
		case domain.IsTransient(err):
			logger.Debug("start mining offline, server unreachable", "error", err)
		default:
			return err
		}
	}

	c.snap.MiningStartTime = start
	c.snap.MiningEndTime = end
	c.sessionID = sessionID
	c.locked = locked

	snap, err := c.cache.Save(c.snap)
	if err != nil {
		return err
	}
	c.snap = snap

	c.notifier.Notify("Mining Started",
		fmt.Sprintf("Mining at %.1fx. Come back in %s to collect.", locked, c.cycleDuration))
	c.kick()
	return nil
}

// CancelMining abandons the cycle in progress without payout.
func (c *Controller) CancelMining(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap.MiningStartTime == 0 {
		return domain.ErrNotFound
	}

	if c.sessionID != 0 && c.net.Online() {
		err := c.remote.CancelMining(ctx, c.sessionID)
		if err != nil && !domain.IsTransient(err) &&
			!errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrConflict) {
			return err
		}
	}

	c.clearSessionLocked()
	if err := c.cache.Overwrite(c.snap); err != nil {
		return err
	}

	c.notifier.Notify("Mining Cancelled", "The mining session was stopped without payout.")
	c.kick()
	return nil
}

// ActivateAdBuff plays a rewarded ad and, on reward, grants or extends the
// 5x buff. Stacking adds the buff duration to the current expiry, capped at
// 24h out.
func (c *Controller) ActivateAdBuff(ctx context.Context) error {
	rewarded, err := c.ads.Play(ctx)
	if err != nil {
		return fmt.Errorf("play ad: %w", err)
	}
	if !rewarded {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiry := nextExpiryMillis(now, c.snap.AdBuffExpiry, c.buffDuration)

	if c.net.Online() {
		user, err := c.remote.AdBuff(ctx)
		switch {
		case err == nil && user.TemporaryExpiry != nil:
			expiry = user.TemporaryExpiry.UnixMilli()
		case err != nil && !domain.IsTransient(err):
			return err
		}
	}

	c.snap.AdBuffExpiry = expiry
	snap, err := c.cache.Save(c.snap)
	if err != nil {
		return err
	}
	c.snap = snap

	c.notifier.Notify("Boost Activated",
		fmt.Sprintf("5x mining boost active until %s.", time.UnixMilli(expiry).Format(time.Kitchen)))
	c.kick()
	return nil
}

// CompleteDue credits the cycle if its window has elapsed. Safe to call on
// every tick; a non-due cycle is a no-op.
func (c *Controller) CompleteDue(ctx context.Context, now time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap.MiningStartTime == 0 || now.UnixMilli() < c.snap.MiningEndTime {
		return false, nil
	}

	amount := round2(c.baseRate * c.locked)

	if c.sessionID != 0 && c.net.Online() {
		session, err := c.remote.CompleteMining(ctx, c.sessionID)
		switch {
		case err == nil:
			amount = session.Amount
		case errors.Is(err, domain.ErrConflict):
			// already credited server-side; the sync pass brings the balance
			amount = 0
		case domain.IsTransient(err):
			logger.Debug("completing cycle offline, server unreachable", "error", err)
		case errors.Is(err, domain.ErrNotFound):
		default:
			return false, err
		}
	}

	c.snap.TotalCoins = round2(c.snap.TotalCoins + amount)
	c.clearSessionLocked()
	if err := c.cache.Overwrite(c.snap); err != nil {
		return true, err
	}

	if amount > 0 {
		c.notifier.Notify("Mining Complete",
			fmt.Sprintf("You earned %.2f PTC. Balance: %.2f PTC.", amount, c.snap.TotalCoins))
	}
	c.kick()
	return true, nil
}

// applySynced folds the server's merged snapshot back into local state.
// requested is the snapshot that was sent; if the session changed while the
// request was in flight, the local session is kept.
func (c *Controller) applySynced(requested, result domain.CacheSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap.TotalCoins > result.TotalCoins {
		result.TotalCoins = c.snap.TotalCoins
	}
	if c.snap.AdBuffExpiry > result.AdBuffExpiry {
		result.AdBuffExpiry = c.snap.AdBuffExpiry
	}

	if c.snap.MiningStartTime != requested.MiningStartTime {
		// local session changed mid-flight; keep it
		result.MiningStartTime = c.snap.MiningStartTime
		result.MiningEndTime = c.snap.MiningEndTime
	} else if result.MiningStartTime != c.snap.MiningStartTime {
		// server owns the session now (adopted, completed, or replaced)
		c.sessionID = 0
		if result.MiningStartTime > 0 {
			buffAtStart := result.AdBuffExpiry > result.MiningStartTime
			c.locked = multiplier.Effective(c.permanent, buffAtStart, multiplier.AdBuffValue)
		}
	}

	c.snap = result
	return c.cache.Overwrite(c.snap)
}

// Run ticks the timers: cycle completion and buff expiry notifications.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	buffWasActive := c.BuffActive(time.Now())

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := c.CompleteDue(ctx, now); err != nil {
				logger.Error("cycle completion failed", "error", err)
			}

			active := c.BuffActive(now)
			if buffWasActive && !active {
				c.notifier.Notify("Boost Expired", "The 5x mining boost has ended.")
			}
			buffWasActive = active
		}
	}
}

func (c *Controller) clearSessionLocked() {
	c.snap.MiningStartTime = 0
	c.snap.MiningEndTime = 0
	c.sessionID = 0
	c.locked = 0
}

// nextExpiryMillis mirrors the server's buff stacking rule on unix-milli
// timestamps: fresh buffs run for the full duration, stacked ones extend
// the current expiry, capped at 24h from now.
func nextExpiryMillis(now time.Time, current int64, duration time.Duration) int64 {
	nowMs := now.UnixMilli()
	if current <= nowMs {
		return now.Add(duration).UnixMilli()
	}
	extended := current + duration.Milliseconds()
	if max := now.Add(buffStackHorizon).UnixMilli(); extended > max {
		return max
	}
	return extended
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
