package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type StartMiningRequest struct {
	// DurationMs overrides the default 24h cycle, mainly for testing.
	DurationMs int64 `json:"duration,omitempty"`
}

// StartMining opens a new cycle: 201 with the session, or 409 when one is
// already active.
func (h *Handler) StartMining(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req StartMiningRequest
	_ = c.ShouldBindJSON(&req)

	session, err := h.Mining.Start(c.Request.Context(), userID, time.Duration(req.DurationMs)*time.Millisecond)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// CompleteMining pays out the session's locked-in multiplier. Repeat calls
// get 409, never a second credit.
func (h *Handler) CompleteMining(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := strconv.ParseInt(c.Param("sessionId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	session, err := h.Mining.Complete(c.Request.Context(), userID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// CancelMining stops an active session without payout.
func (h *Handler) CancelMining(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := strconv.ParseInt(c.Param("sessionId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	if err := h.Mining.Cancel(c.Request.Context(), userID, sessionID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "mining session cancelled"})
}

// MiningHistory lists recent finished sessions, newest first.
func (h *Handler) MiningHistory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 10
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	history, err := h.Mining.History(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

type AdBuffRequest struct {
	// DurationMs overrides the default 2h buff, mainly for testing.
	DurationMs int64 `json:"duration,omitempty"`
}

// AdBuff activates or extends the 5x ad boost after a rewarded ad.
func (h *Handler) AdBuff(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req AdBuffRequest
	_ = c.ShouldBindJSON(&req)

	user, err := h.Buff.Activate(c.Request.Context(), userID, time.Duration(req.DurationMs)*time.Millisecond)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
