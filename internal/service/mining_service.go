package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"ptc_mining/internal/domain"
	"ptc_mining/internal/logger"
	"ptc_mining/internal/multiplier"
	"ptc_mining/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MiningService is the server-side mining cycle state machine:
// Idle -> Active -> {Completed, Cancelled}. Terminal states are immutable.
type MiningService struct {
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	notify   *NotifyService

	cycleDuration time.Duration
}

func NewMiningService(db *pgxpool.Pool, notify *NotifyService, cycleDuration time.Duration) *MiningService {
	return &MiningService{
		users:         repository.NewUserRepository(db),
		sessions:      repository.NewSessionRepository(db),
		notify:        notify,
		cycleDuration: cycleDuration,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Start opens a new cycle. The effective multiplier is computed from the
// user's buff state at this moment and locked into the session; buff expiry
// mid-cycle does not touch it. Returns ErrConflict when a session is
// already active.
func (s *MiningService) Start(ctx context.Context, userID int64, duration time.Duration) (*domain.MiningSession, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if duration <= 0 {
		duration = s.cycleDuration
	}

	now := time.Now()
	mult := multiplier.Effective(user.PermanentMultiplier, user.AdBuffActive(now), user.TemporaryMultiplier)

	session := &domain.MiningSession{
		UserID:     userID,
		StartTime:  now,
		EndTime:    now.Add(duration),
		Multiplier: mult,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := s.users.TouchLastActive(ctx, userID); err != nil {
		logger.Warn("failed to touch last_active", "user_id", userID, "error", err)
	}

	sessionsStarted.Inc()
	logger.Info("mining session started",
		"user_id", userID, "session_id", session.ID, "multiplier", mult)
	return session, nil
}

// Complete pays out an active session using its locked-in multiplier.
// Safe to invoke repeatedly: the active-only transition in the repository
// rejects the second attempt with ErrConflict instead of double-crediting.
func (s *MiningService) Complete(ctx context.Context, userID, sessionID int64) (*domain.MiningSession, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionActive {
		return nil, domain.ErrConflict
	}

	amount := round2(user.MiningRate * session.Multiplier)
	newTotal, err := s.sessions.CompleteAndCredit(ctx, userID, sessionID, amount)
	if err != nil {
		return nil, err
	}

	session.Status = domain.SessionCompleted
	session.Amount = amount

	sessionsCompleted.Inc()
	coinsCredited.Add(amount)
	logger.Info("mining session completed",
		"user_id", userID, "session_id", sessionID, "amount", amount, "total", newTotal)

	s.notify.Notify(ctx, userID, "Mining Completed",
		fmt.Sprintf("You earned %.2f PTC from your mining session!", amount))
	return session, nil
}

// Cancel stops an active session with no payout.
func (s *MiningService) Cancel(ctx context.Context, userID, sessionID int64) error {
	if err := s.sessions.Cancel(ctx, userID, sessionID); err != nil {
		return err
	}
	sessionsCancelled.Inc()
	logger.Info("mining session cancelled", "user_id", userID, "session_id", sessionID)
	return nil
}

// Active returns the running session, or ErrNotFound.
func (s *MiningService) Active(ctx context.Context, userID int64) (*domain.MiningSession, error) {
	return s.sessions.GetActive(ctx, userID)
}

// History lists recent finished sessions.
func (s *MiningService) History(ctx context.Context, userID int64, limit int) ([]domain.MiningSession, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.sessions.History(ctx, userID, limit)
}

// CompleteDue pays out every active session past its end time. Invoked by
// the cron sweep and after sync merges; each completion goes through the
// same guarded transition as Complete.
func (s *MiningService) CompleteDue(ctx context.Context, now time.Time) int {
	due, err := s.sessions.ListDue(ctx, now, 200)
	if err != nil {
		logger.Error("failed to list due sessions", "error", err)
		return 0
	}

	completed := 0
	for _, session := range due {
		if _, err := s.Complete(ctx, session.UserID, session.ID); err != nil {
			// ErrConflict means another caller finished it first
			if !errors.Is(err, domain.ErrConflict) {
				logger.Warn("sweep completion failed",
					"session_id", session.ID, "user_id", session.UserID, "error", err)
			}
			continue
		}
		completed++
	}
	return completed
}
