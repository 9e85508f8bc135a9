package service

import (
	"context"

	"ptc_mining/internal/domain"
	"ptc_mining/internal/logger"
	"ptc_mining/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pusher delivers a stored notification to live connections. The ws hub
// implements it; a nil pusher means store-only.
type Pusher interface {
	Push(userID int64, n domain.Notification)
}

// NotifyService persists notifications and pushes them to connected devices.
// Delivery is best-effort: a failed write is logged, never propagated, so
// notifying can't break the mutation that triggered it.
type NotifyService struct {
	repo   *repository.NotificationRepository
	pusher Pusher
}

func NewNotifyService(db *pgxpool.Pool, pusher Pusher) *NotifyService {
	return &NotifyService{
		repo:   repository.NewNotificationRepository(db),
		pusher: pusher,
	}
}

func (s *NotifyService) Notify(ctx context.Context, userID int64, title, message string) {
	n := domain.Notification{UserID: userID, Title: title, Message: message}
	if err := s.repo.Create(ctx, &n); err != nil {
		logger.Warn("failed to store notification", "user_id", userID, "error", err)
		return
	}
	if s.pusher != nil {
		s.pusher.Push(userID, n)
	}
}

func (s *NotifyService) List(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

func (s *NotifyService) MarkRead(ctx context.Context, userID, id int64) error {
	return s.repo.MarkRead(ctx, userID, id)
}
