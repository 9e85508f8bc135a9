package handlers

import (
	"errors"
	"net/http"
	"time"

	"ptc_mining/internal/domain"
	"ptc_mining/internal/multiplier"

	"github.com/gin-gonic/gin"
)

// Me returns the user document plus the live effective multiplier. The
// live value is a preview only; payouts use the multiplier locked into the
// session at start.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.Users.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	effective := multiplier.Effective(user.PermanentMultiplier, user.AdBuffActive(now), user.TemporaryMultiplier)

	var session *domain.MiningSession
	if active, err := h.Mining.Active(c.Request.Context(), userID); err == nil {
		session = active
	} else if !errors.Is(err, domain.ErrNotFound) {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":                 user,
		"effective_multiplier": effective,
		"active_session":       session,
	})
}
