package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type RedeemReferralRequest struct {
	Code string `json:"code" binding:"required"`
}

// RedeemReferral links the caller to the code's owner and bumps the owner's
// permanent multiplier. A code can be redeemed by a given user only once.
func (h *Handler) RedeemReferral(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req RedeemReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	result, err := h.Referral.Redeem(c.Request.Context(), userID, strings.TrimSpace(req.Code))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":        "referral code redeemed",
		"referrer_id":    result.ReferrerID,
		"referral_count": result.ReferralCount,
		"multiplier":     result.Multiplier,
	})
}

// ListReferrals returns the users who joined through the caller's code.
func (h *Handler) ListReferrals(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	entries, err := h.Referral.List(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"referrals": entries})
}
