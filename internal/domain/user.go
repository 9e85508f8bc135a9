package domain

import "time"

type User struct {
	ID                  int64      `json:"id"`
	FirebaseUID         string     `json:"firebase_uid"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	DisplayName         string     `json:"display_name"`
	InviteCode          string     `json:"invite_code"`
	TotalCoins          float64    `json:"total_coins"`
	MiningRate          float64    `json:"mining_rate"`
	PermanentMultiplier float64    `json:"permanent_multiplier"`
	TemporaryMultiplier float64    `json:"temporary_multiplier"`
	TemporaryExpiry     *time.Time `json:"temporary_expiry,omitempty"`
	ReferralCount       int        `json:"referral_count"`
	LastActive          time.Time  `json:"last_active"`
	CreatedAt           time.Time  `json:"created_at"`
}

// AdBuffActive reports whether the temporary ad buff is still running at now.
func (u *User) AdBuffActive(now time.Time) bool {
	return u.TemporaryExpiry != nil && u.TemporaryExpiry.After(now)
}
