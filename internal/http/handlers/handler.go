package handlers

import (
	"errors"
	"net/http"

	"ptc_mining/internal/domain"
	"ptc_mining/internal/logger"
	"ptc_mining/internal/repository"
	"ptc_mining/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB       *pgxpool.Pool
	Users    *repository.UserRepository
	Mining   *service.MiningService
	Buff     *service.BuffService
	Referral *service.ReferralService
	SyncSvc  *service.SyncService
	Notify   *service.NotifyService

	// BaseRate is the mining rate stamped onto new accounts.
	BaseRate float64
}

func NewHandler(db *pgxpool.Pool, mining *service.MiningService, buff *service.BuffService,
	referral *service.ReferralService, sync *service.SyncService, notify *service.NotifyService,
	baseRate float64) *Handler {
	return &Handler{
		DB:       db,
		Users:    repository.NewUserRepository(db),
		Mining:   mining,
		Buff:     buff,
		Referral: referral,
		SyncSvc:  sync,
		Notify:   notify,
		BaseRate: baseRate,
	}
}

// getUserID извлекает user_id из контекста Gin
func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// respondError maps domain errors onto HTTP statuses. Logical rejections
// carry their specific message; anything else is a 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrSelfReferral),
		errors.Is(err, domain.ErrDuplicateReferral):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("internal error", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
