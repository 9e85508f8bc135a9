package http

import (
	"time"

	"ptc_mining/internal/config"
	"ptc_mining/internal/http/handlers"
	"ptc_mining/internal/http/middleware"
	"ptc_mining/internal/service"
	"ptc_mining/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes wires the REST surface and the websocket push endpoint.
// The returned handler exposes the services so main can hand them to the
// background scheduler.
func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, cfg *config.Config) *handlers.Handler {
	hub := ws.NewHub()

	notify := service.NewNotifyService(db, hub)
	mining := service.NewMiningService(db, notify, cfg.CycleDuration)
	buff := service.NewBuffService(db, notify, cfg.AdBuffDuration)
	referral := service.NewReferralService(db, notify)
	sync := service.NewSyncService(db, mining)

	h := handlers.NewHandler(db, mining, buff, referral, sync, notify, cfg.BaseRate)

	// Health and metrics stay outside the rate limiter
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))

	// Auth gets a tighter window than the rest of the API
	api.POST("/auth", middleware.RedisRateLimit(5, time.Minute), h.Auth)

	api.GET("/me", middleware.JWT(), h.Me)

	// Mining cycles
	api.POST("/mining/start", middleware.JWT(), h.StartMining)
	api.POST("/mining/complete/:sessionId", middleware.JWT(), h.CompleteMining)
	api.POST("/mining/cancel/:sessionId", middleware.JWT(), h.CancelMining)
	api.GET("/mining/history", middleware.JWT(), h.MiningHistory)
	api.POST("/mining/ad-buff", middleware.JWT(), h.AdBuff)

	// Referrals
	api.POST("/referrals/redeem", middleware.JWT(), h.RedeemReferral)
	api.GET("/referrals", middleware.JWT(), h.ListReferrals)

	// Offline reconciliation
	api.POST("/sync", middleware.JWT(), h.Sync)

	// Notifications
	api.GET("/notifications", middleware.JWT(), h.Notifications)
	api.PATCH("/notifications/:id/read", middleware.JWT(), h.MarkNotificationRead)

	// WebSocket push channel
	r.GET("/ws", h.WS(hub))

	return h
}
