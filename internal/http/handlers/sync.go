package handlers

import (
	"net/http"

	"ptc_mining/internal/domain"

	"github.com/gin-gonic/gin"
)

// Sync merges a device snapshot into the server state and returns the
// reconciled snapshot. The merge only moves values forward, so replaying an
// old snapshot is harmless.
func (h *Handler) Sync(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var device domain.CacheSnapshot
	if err := c.ShouldBindJSON(&device); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snapshot"})
		return
	}
	device.UserID = userID

	merged, err := h.SyncSvc.Apply(c.Request.Context(), userID, device)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, merged)
}
