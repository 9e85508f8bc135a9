package repository

import (
	"context"

	"ptc_mining/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReferralRepository struct {
	db *pgxpool.Pool
}

func NewReferralRepository(db *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// CreateEdgeAndBump inserts the referral edge and bumps the referrer's
// counters in one transaction. The (referrer_id, referred_id) uniqueness
// constraint is the sole dedup mechanism: a repeat insert affects zero rows
// and surfaces as ErrDuplicateReferral. permanentMultiplier is the caller's
// recomputation from the new count, never an increment of the stored value.
func (r *ReferralRepository) CreateEdgeAndBump(ctx context.Context, referrerID, referredID int64, permanentFromCount func(count int) float64) (newCount int, newMultiplier float64, err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`INSERT INTO referrals (referrer_id, referred_id)
		 VALUES ($1, $2)
		 ON CONFLICT (referrer_id, referred_id) DO NOTHING`,
		referrerID, referredID)
	if err != nil {
		return 0, 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, 0, domain.ErrDuplicateReferral
	}

	err = tx.QueryRow(ctx,
		`UPDATE users SET referral_count = referral_count + 1, updated_at = NOW()
		 WHERE id = $1
		 RETURNING referral_count`,
		referrerID).Scan(&newCount)
	if err != nil {
		return 0, 0, err
	}

	newMultiplier = permanentFromCount(newCount)
	_, err = tx.Exec(ctx,
		`UPDATE users SET permanent_multiplier = $1 WHERE id = $2`,
		newMultiplier, referrerID)
	if err != nil {
		return 0, 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return newCount, newMultiplier, nil
}

// ListByReferrer returns the user's referrals with display info about the
// referred accounts, newest first. isActive means seen in the last week.
func (r *ReferralRepository) ListByReferrer(ctx context.Context, referrerID int64, limit int) ([]domain.ReferralEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ref.id, COALESCE(u.display_name, u.username), ref.created_at,
		       u.last_active >= NOW() - INTERVAL '7 days'
		FROM referrals ref
		JOIN users u ON u.id = ref.referred_id
		WHERE ref.referrer_id = $1
		ORDER BY ref.created_at DESC
		LIMIT $2`,
		referrerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ReferralEntry
	for rows.Next() {
		var e domain.ReferralEntry
		if err := rows.Scan(&e.ID, &e.DisplayName, &e.JoinedAt, &e.IsActive); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Exists checks for an edge between the pair.
func (r *ReferralRepository) Exists(ctx context.Context, referrerID, referredID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM referrals WHERE referrer_id = $1 AND referred_id = $2)`,
		referrerID, referredID).Scan(&exists)
	return exists, err
}
