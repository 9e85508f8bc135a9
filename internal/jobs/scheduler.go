// Package jobs runs the background sweeps: completing mining sessions whose
// cycle elapsed while the device was away, and clearing expired ad buffs.
package jobs

import (
	"context"
	"time"

	"ptc_mining/internal/logger"
	"ptc_mining/internal/service"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron   *cron.Cron
	mining *service.MiningService
	buff   *service.BuffService
}

func NewScheduler(mining *service.MiningService, buff *service.BuffService) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		mining: mining,
		buff:   buff,
	}
}

// Start schedules the sweeps. Both are idempotent, so overlapping with a
// concurrent /sync or /mining/complete call is safe.
func (s *Scheduler) Start(ctx context.Context) {
	// Pay out sessions whose 24h window has elapsed
	s.cron.AddFunc("*/5 * * * *", func() {
		n := s.mining.CompleteDue(ctx, time.Now())
		if n > 0 {
			logger.Info("sweep completed due sessions", "count", n)
		}
	})

	// Drop expired ad buffs so /me reflects the base multiplier promptly
	s.cron.AddFunc("* * * * *", func() {
		n := s.buff.SweepExpired(ctx, time.Now())
		if n > 0 {
			logger.Debug("sweep cleared expired ad buffs", "count", n)
		}
	})

	s.cron.Start()
	logger.Info("background scheduler started")
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("background scheduler stopped")
}
