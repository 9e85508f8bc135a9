package service

import (
	"context"
	"fmt"

	"ptc_mining/internal/domain"
	"ptc_mining/internal/logger"
	"ptc_mining/internal/multiplier"
	"ptc_mining/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferralService owns the referral ledger and, through it, the permanent
// multiplier: the stored value is always a recomputation from the accepted
// edge count, never an independent increment.
type ReferralService struct {
	users  *repository.UserRepository
	refs   *repository.ReferralRepository
	notify *NotifyService
}

func NewReferralService(db *pgxpool.Pool, notify *NotifyService) *ReferralService {
	return &ReferralService{
		users:  repository.NewUserRepository(db),
		refs:   repository.NewReferralRepository(db),
		notify: notify,
	}
}

// RedeemResult reports the referrer's state after a successful redemption.
type RedeemResult struct {
	ReferrerID    int64   `json:"referrer_id"`
	ReferralCount int     `json:"referral_count"`
	Multiplier    float64 `json:"multiplier"`
}

// Redeem records a referrer->referred edge for the account that entered the
// code. Errors are state facts, not glitches: ErrNotFound for an unknown
// code, ErrSelfReferral for the owner's own code, ErrDuplicateReferral when
// the edge already exists. The edge uniqueness constraint is the sole
// dedup mechanism against client retries.
func (s *ReferralService) Redeem(ctx context.Context, userID int64, code string) (*RedeemResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	referrer, err := s.users.GetByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if referrer.ID == user.ID {
		return nil, domain.ErrSelfReferral
	}

	newCount, newMult, err := s.refs.CreateEdgeAndBump(ctx, referrer.ID, user.ID, multiplier.Permanent)
	if err != nil {
		return nil, err
	}

	referralsAccepted.Inc()
	logger.Info("referral redeemed",
		"referrer_id", referrer.ID, "referred_id", user.ID,
		"referral_count", newCount, "permanent_multiplier", newMult)

	s.notify.Notify(ctx, referrer.ID, "New Referral",
		fmt.Sprintf("%s joined using your referral code! Your mining multiplier is now %.1fx.",
			user.DisplayName, newMult))

	return &RedeemResult{
		ReferrerID:    referrer.ID,
		ReferralCount: newCount,
		Multiplier:    newMult,
	}, nil
}

// List returns the user's referrals with referred-account display info.
func (s *ReferralService) List(ctx context.Context, userID int64, limit int) ([]domain.ReferralEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.refs.ListByReferrer(ctx, userID, limit)
}
