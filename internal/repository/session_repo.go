package repository

import (
	"context"
	"errors"
	"time"

	"ptc_mining/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionColumns = `id, user_id, start_time, end_time, status, multiplier,
	COALESCE(amount, 0), created_at, updated_at`

type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

func scanSession(row pgx.Row) (*domain.MiningSession, error) {
	var s domain.MiningSession
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.StartTime,
		&s.EndTime,
		&s.Status,
		&s.Multiplier,
		&s.Amount,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, userID, sessionID int64) (*domain.MiningSession, error) {
	return scanSession(r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM mining_sessions WHERE id = $1 AND user_id = $2`,
		sessionID, userID))
}

// GetActive returns the user's active session, or ErrNotFound.
func (r *SessionRepository) GetActive(ctx context.Context, userID int64) (*domain.MiningSession, error) {
	return scanSession(r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM mining_sessions
		 WHERE user_id = $1 AND status = 'active'`,
		userID))
}

// Create inserts an active session. The partial unique index on
// (user_id) WHERE status = 'active' rejects a second active session; that
// violation is reported as ErrConflict.
func (r *SessionRepository) Create(ctx context.Context, s *domain.MiningSession) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO mining_sessions (user_id, start_time, end_time, status, multiplier)
		 VALUES ($1, $2, $3, 'active', $4)
		 RETURNING `+sessionColumns,
		s.UserID, s.StartTime, s.EndTime, s.Multiplier,
	).Scan(
		&s.ID,
		&s.UserID,
		&s.StartTime,
		&s.EndTime,
		&s.Status,
		&s.Multiplier,
		&s.Amount,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return err
}

// CompleteAndCredit transitions the session to completed and credits the
// payout in one transaction. The status guard makes a second invocation a
// no-op rejection instead of a double credit.
func (r *SessionRepository) CompleteAndCredit(ctx context.Context, userID, sessionID int64, amount float64) (newTotal float64, err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE mining_sessions SET status = 'completed', amount = $1, updated_at = NOW()
		 WHERE id = $2 AND user_id = $3 AND status = 'active'`,
		amount, sessionID, userID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		_ = tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM mining_sessions WHERE id = $1 AND user_id = $2)`,
			sessionID, userID).Scan(&exists)
		if !exists {
			return 0, domain.ErrNotFound
		}
		return 0, domain.ErrConflict
	}

	err = tx.QueryRow(ctx,
		`UPDATE users SET total_coins = total_coins + $1, last_active = NOW(), updated_at = NOW()
		 WHERE id = $2
		 RETURNING total_coins`,
		amount, userID).Scan(&newTotal)
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	return newTotal, nil
}

// Cancel transitions an active session to cancelled. No payout.
func (r *SessionRepository) Cancel(ctx context.Context, userID, sessionID int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE mining_sessions SET status = 'cancelled', updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND status = 'active'`,
		sessionID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		_ = r.db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM mining_sessions WHERE id = $1 AND user_id = $2)`,
			sessionID, userID).Scan(&exists)
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

// History returns the most recent finished sessions, newest first.
func (r *SessionRepository) History(ctx context.Context, userID int64, limit int) ([]domain.MiningSession, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+sessionColumns+` FROM mining_sessions
		 WHERE user_id = $1 AND status IN ('completed', 'cancelled')
		 ORDER BY end_time DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.MiningSession
	for rows.Next() {
		var s domain.MiningSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.StartTime, &s.EndTime, &s.Status,
			&s.Multiplier, &s.Amount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		history = append(history, s)
	}
	return history, rows.Err()
}

// ListDue returns active sessions whose end time has passed, for the sweep.
func (r *SessionRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.MiningSession, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+sessionColumns+` FROM mining_sessions
		 WHERE status = 'active' AND end_time <= $1
		 ORDER BY end_time
		 LIMIT $2`,
		now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []domain.MiningSession
	for rows.Next() {
		var s domain.MiningSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.StartTime, &s.EndTime, &s.Status,
			&s.Multiplier, &s.Amount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		due = append(due, s)
	}
	return due, rows.Err()
}
