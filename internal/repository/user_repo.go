package repository

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"ptc_mining/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, firebase_uid, username, email, COALESCE(display_name, ''), invite_code,
	total_coins, mining_rate, permanent_multiplier, temporary_multiplier, temporary_expiry,
	referral_count, last_active, created_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateInviteCode returns an 8-character opaque code.
func GenerateInviteCode() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)

	var sb strings.Builder
	for _, b := range bytes {
		sb.WriteByte(inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)])
	}
	return sb.String()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.FirebaseUID,
		&u.Username,
		&u.Email,
		&u.DisplayName,
		&u.InviteCode,
		&u.TotalCoins,
		&u.MiningRate,
		&u.PermanentMultiplier,
		&u.TemporaryMultiplier,
		&u.TemporaryExpiry,
		&u.ReferralCount,
		&u.LastActive,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByFirebaseUID(ctx context.Context, uid string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE firebase_uid = $1`, uid))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByInviteCode(ctx context.Context, code string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE invite_code = $1`, code))
}

// Create inserts a new account. Multipliers and the zero balance come from
// the schema; the mining rate comes from config (schema default when zero)
// and the invite code is generated once here and never changes afterwards.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if u.InviteCode == "" {
		u.InviteCode = GenerateInviteCode()
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO users (firebase_uid, username, email, display_name, invite_code, mining_rate)
		 VALUES ($1, $2, $3, $4, $5, COALESCE(NULLIF($6::numeric, 0), 0.1))
		 RETURNING `+userColumns,
		u.FirebaseUID, u.Username, u.Email, u.DisplayName, u.InviteCode, u.MiningRate,
	).Scan(
		&u.ID,
		&u.FirebaseUID,
		&u.Username,
		&u.Email,
		&u.DisplayName,
		&u.InviteCode,
		&u.TotalCoins,
		&u.MiningRate,
		&u.PermanentMultiplier,
		&u.TemporaryMultiplier,
		&u.TemporaryExpiry,
		&u.ReferralCount,
		&u.LastActive,
		&u.CreatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return err
}

// TouchLastActive bumps the activity timestamp.
func (r *UserRepository) TouchLastActive(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET last_active = NOW(), updated_at = NOW() WHERE id = $1`, userID)
	return err
}

// SetAdBuff activates the temporary multiplier until expiry.
func (r *UserRepository) SetAdBuff(ctx context.Context, userID int64, value float64, expiry time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET temporary_multiplier = $1, temporary_expiry = $2, updated_at = NOW()
		 WHERE id = $3`,
		value, expiry, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ClearExpiredAdBuff resets the temporary buff once its expiry has passed.
// A no-op when the buff is still running or already cleared.
func (r *UserRepository) ClearExpiredAdBuff(ctx context.Context, userID int64, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET temporary_multiplier = 1.0, temporary_expiry = NULL, updated_at = NOW()
		 WHERE id = $1 AND temporary_expiry IS NOT NULL AND temporary_expiry <= $2`,
		userID, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ClearAllExpiredAdBuffs is the sweep variant used by the background job.
func (r *UserRepository) ClearAllExpiredAdBuffs(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET temporary_multiplier = 1.0, temporary_expiry = NULL, updated_at = NOW()
		 WHERE temporary_expiry IS NOT NULL AND temporary_expiry <= $1`,
		now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RaiseCoinsTo lifts the balance to target if it is currently lower.
// Sync merges go through here so a stale snapshot can never shrink a balance.
func (r *UserRepository) RaiseCoinsTo(ctx context.Context, userID int64, target float64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET total_coins = $1, last_active = NOW(), updated_at = NOW()
		 WHERE id = $2 AND total_coins < $1`,
		target, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ExtendAdBuffTo raises the buff expiry to target if later than the stored
// one, reasserting the buff value. Monotonic, like RaiseCoinsTo.
func (r *UserRepository) ExtendAdBuffTo(ctx context.Context, userID int64, value float64, target time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET temporary_multiplier = $1, temporary_expiry = $2, updated_at = NOW()
		 WHERE id = $3 AND (temporary_expiry IS NULL OR temporary_expiry < $2)`,
		value, target, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
