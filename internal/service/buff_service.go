package service

import (
	"context"
	"fmt"
	"time"

	"ptc_mining/internal/domain"
	"ptc_mining/internal/logger"
	"ptc_mining/internal/multiplier"
	"ptc_mining/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// horizon bounds buff stacking: however many ads are watched, the expiry
// never reaches past 24h from the moment of activation.
const buffStackHorizon = 24 * time.Hour

// BuffService manages the temporary ad buff. The permanent referral buff is
// not touched here; it is owned by ReferralService.
type BuffService struct {
	users  *repository.UserRepository
	notify *NotifyService

	buffDuration time.Duration
}

func NewBuffService(db *pgxpool.Pool, notify *NotifyService, buffDuration time.Duration) *BuffService {
	return &BuffService{
		users:        repository.NewUserRepository(db),
		notify:       notify,
		buffDuration: buffDuration,
	}
}

// NextExpiry computes the expiry an activation at now produces: a fresh
// buff runs for the configured duration; stacking on a running buff adds
// the duration to the current expiry, capped at now + 24h.
func NextExpiry(now time.Time, current *time.Time, duration time.Duration) time.Time {
	if current == nil || !current.After(now) {
		return now.Add(duration)
	}
	extended := current.Add(duration)
	if max := now.Add(buffStackHorizon); extended.After(max) {
		return max
	}
	return extended
}

// Activate grants or extends the 5x ad buff after a rewarded ad.
func (s *BuffService) Activate(ctx context.Context, userID int64, duration time.Duration) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if duration <= 0 {
		duration = s.buffDuration
	}

	now := time.Now()
	newExpiry := NextExpiry(now, user.TemporaryExpiry, duration)

	if err := s.users.SetAdBuff(ctx, userID, multiplier.AdBuffValue, newExpiry); err != nil {
		return nil, err
	}

	user.TemporaryMultiplier = multiplier.AdBuffValue
	user.TemporaryExpiry = &newExpiry

	adBuffsActivated.Inc()
	logger.Info("ad buff activated", "user_id", userID, "expiry", newExpiry)

	s.notify.Notify(ctx, userID, "Boost Activated", buffMessage(newExpiry))
	return user, nil
}

// buffMessage reports the real expiry so a stacked or custom-duration
// activation reads correctly.
func buffMessage(expiry time.Time) string {
	return fmt.Sprintf("Mining buff activated! %.0fx boost until %s.",
		multiplier.AdBuffValue, expiry.Format("15:04 MST"))
}

// SweepExpired resets every buff whose expiry has passed. Expiry only
// affects future session starts and the live rate preview; sessions in
// progress keep their locked multiplier.
func (s *BuffService) SweepExpired(ctx context.Context, now time.Time) int64 {
	cleared, err := s.users.ClearAllExpiredAdBuffs(ctx, now)
	if err != nil {
		logger.Error("ad buff sweep failed", "error", err)
		return 0
	}
	if cleared > 0 {
		logger.Info("expired ad buffs cleared", "count", cleared)
	}
	return cleared
}
