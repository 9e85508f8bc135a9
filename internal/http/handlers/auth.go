package handlers

import (
	"errors"
	"net/http"
	"strings"

	"ptc_mining/internal/domain"
	"ptc_mining/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	FirebaseUID string `json:"firebase_uid" binding:"required"`
	Email       string `json:"email" binding:"required"`
	DisplayName string `json:"display_name"`
}

// Auth exchanges an authenticated identity for a JWT, creating the account
// on first sign-in. The invite code is generated exactly once here and is
// immutable afterwards.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "firebase_uid and email are required"})
		return
	}

	ctx := c.Request.Context()
	created := false

	user, err := h.Users.GetByFirebaseUID(ctx, req.FirebaseUID)
	if errors.Is(err, domain.ErrNotFound) {
		username := req.Email
		if i := strings.Index(username, "@"); i > 0 {
			username = username[:i]
		}
		displayName := req.DisplayName
		if displayName == "" {
			displayName = username
		}

		user = &domain.User{
			FirebaseUID: req.FirebaseUID,
			Username:    username,
			Email:       req.Email,
			DisplayName: displayName,
			MiningRate:  h.BaseRate,
		}
		if err := h.Users.Create(ctx, user); err != nil {
			// username collision: retry once with a uid-derived suffix
			if errors.Is(err, domain.ErrConflict) {
				suffix := req.FirebaseUID
				if len(suffix) > 6 {
					suffix = suffix[:6]
				}
				user.Username = username + "_" + suffix
				err = h.Users.Create(ctx, user)
			}
			if err != nil {
				respondError(c, err)
				return
			}
		}
		created = true
	} else if err != nil {
		respondError(c, err)
		return
	} else {
		if err := h.Users.TouchLastActive(ctx, user.ID); err != nil {
			respondError(c, err)
			return
		}
	}

	token, err := service.GenerateJWT(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"token": token,
		"user":  user,
	})
}
