package domain

import "time"

// Referral is an immutable referrer->referred edge, unique per pair.
type Referral struct {
	ID         int64     `json:"id"`
	ReferrerID int64     `json:"referrer_id"`
	ReferredID int64     `json:"referred_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReferralEntry is a referral joined with display info about the referred user.
type ReferralEntry struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
	IsActive    bool      `json:"is_active"`
}
