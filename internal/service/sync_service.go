package service

import (
	"context"
	"errors"
	"time"

	"ptc_mining/internal/domain"
	"ptc_mining/internal/logger"
	"ptc_mining/internal/multiplier"
	"ptc_mining/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SyncService merges a device snapshot into server truth using the
// monotonic rules from domain.MergeSnapshots, then applies the merged view
// back to the record store. Balances and buff expiries never regress.
type SyncService struct {
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	mining   *MiningService
}

func NewSyncService(db *pgxpool.Pool, mining *MiningService) *SyncService {
	return &SyncService{
		users:    repository.NewUserRepository(db),
		sessions: repository.NewSessionRepository(db),
		mining:   mining,
	}
}

// Apply runs one sync pass for the user and returns the merged snapshot.
// It also re-checks deadlines: a session past its end time is completed
// here (idempotently), and a lapsed buff is cleared, so a device that was
// offline at the deadline still converges on the next sync.
func (s *SyncService) Apply(ctx context.Context, userID int64, device domain.CacheSnapshot) (domain.CacheSnapshot, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.CacheSnapshot{}, err
	}

	now := time.Now()

	server := domain.CacheSnapshot{
		UserID:     userID,
		TotalCoins: user.TotalCoins,
	}
	if user.TemporaryExpiry != nil {
		server.AdBuffExpiry = user.TemporaryExpiry.UnixMilli()
	}

	active, err := s.sessions.GetActive(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.CacheSnapshot{}, err
	}
	if active != nil {
		server.MiningStartTime = active.StartTime.UnixMilli()
		server.MiningEndTime = active.EndTime.UnixMilli()
	}

	merged := domain.MergeSnapshots(server, device)

	if merged.TotalCoins > user.TotalCoins {
		if _, err := s.users.RaiseCoinsTo(ctx, userID, merged.TotalCoins); err != nil {
			return domain.CacheSnapshot{}, err
		}
	}

	if merged.AdBuffExpiry > server.AdBuffExpiry && merged.AdBuffExpiry > now.UnixMilli() {
		expiry := time.UnixMilli(merged.AdBuffExpiry)
		if _, err := s.users.ExtendAdBuffTo(ctx, userID, multiplier.AdBuffValue, expiry); err != nil {
			return domain.CacheSnapshot{}, err
		}
	}

	// Adopt a device-side session the server never saw (started offline).
	// The multiplier snapshot is recomputed from the server's buff fields;
	// the server's view is authoritative for what persists.
	if active == nil && device.MiningStartTime > 0 && device.MiningEndTime > now.UnixMilli() {
		session := &domain.MiningSession{
			UserID:     userID,
			StartTime:  time.UnixMilli(device.MiningStartTime),
			EndTime:    time.UnixMilli(device.MiningEndTime),
			Multiplier: multiplier.Effective(user.PermanentMultiplier, user.AdBuffActive(now), user.TemporaryMultiplier),
		}
		if err := s.sessions.Create(ctx, session); err != nil && !errors.Is(err, domain.ErrConflict) {
			return domain.CacheSnapshot{}, err
		}
		active = session
	}

	// Deadline re-checks: due session completes, lapsed buff clears.
	if active != nil && active.Due(now) {
		if _, err := s.mining.Complete(ctx, userID, active.ID); err != nil && !errors.Is(err, domain.ErrConflict) {
			logger.Warn("sync completion failed", "user_id", userID, "session_id", active.ID, "error", err)
		}
		merged.MiningStartTime = 0
		merged.MiningEndTime = 0
	}
	if _, err := s.users.ClearExpiredAdBuff(ctx, userID, now); err != nil {
		logger.Warn("sync buff expiry check failed", "user_id", userID, "error", err)
	}

	// Re-read so the returned snapshot reflects any payout just credited.
	user, err = s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.CacheSnapshot{}, err
	}
	merged.TotalCoins = user.TotalCoins
	merged.SyncedAt = now.UnixMilli()

	syncApplied.Inc()
	return merged, nil
}
