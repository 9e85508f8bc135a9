package domain

import "time"

const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

// MiningSession is one mining cycle. The multiplier is snapshotted at start
// and the payout on completion uses that snapshot, not a recomputed value.
type MiningSession struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Status     string    `json:"status"`
	Multiplier float64   `json:"multiplier"`
	Amount     float64   `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Due reports whether the cycle has run its full duration.
func (s *MiningSession) Due(now time.Time) bool {
	return !now.Before(s.EndTime)
}
