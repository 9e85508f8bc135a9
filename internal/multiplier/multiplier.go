// Package multiplier is the single home of the effective-rate formula.
// Every surface that needs a rate (session start, server payout, live
// preview) calls in here; a second implementation of these rules anywhere
// else is a bug.
package multiplier

const (
	// Cap is the hard ceiling on the combined multiplier.
	Cap = 10.0
	// PermanentCap bounds the referral-derived multiplier.
	PermanentCap = 2.0
	// ReferralStep is the permanent-multiplier gain per accepted referral.
	ReferralStep = 0.1
	// AdBuffValue is the temporary multiplier granted by a rewarded ad.
	AdBuffValue = 5.0
)

// Effective combines the permanent and temporary buffs under the cap.
func Effective(permanent float64, tempActive bool, tempValue float64) float64 {
	temp := 1.0
	if tempActive {
		temp = tempValue
	}
	result := permanent * temp
	if result > Cap {
		return Cap
	}
	return result
}

// Permanent derives the referral multiplier from the accepted edge count.
// It is never stored independently of this function's output.
func Permanent(referralCount int) float64 {
	m := 1.0 + ReferralStep*float64(referralCount)
	if m > PermanentCap {
		return PermanentCap
	}
	return m
}
