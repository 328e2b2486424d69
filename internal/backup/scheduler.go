// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backup

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler calls [Service.RunScheduled] at the start of every minute until
// its context is cancelled. Ticks are sequential; a tick that runs past the
// next minute boundary makes the loop skip that boundary.
type Scheduler struct {
	service *Service
	logger  *slog.Logger
	now     func() time.Time
}

func NewScheduler(service *Service, logger *slog.Logger) *Scheduler {
	return &Scheduler{service: service, logger: logger, now: time.Now}
}

// Run blocks until ctx is done.
func (scheduler *Scheduler) Run(ctx context.Context) {
	scheduler.logger.InfoContext(ctx, "backup_scheduler_started")

	timer := time.NewTimer(untilNextMinute(scheduler.now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			scheduler.logger.InfoContext(ctx, "backup_scheduler_stopped")
			return
		case <-timer.C:
			scheduler.tick(ctx)
			timer.Reset(untilNextMinute(scheduler.now()))
		}
	}
}

func (scheduler *Scheduler) tick(ctx context.Context) {
	decision, result, err := scheduler.service.RunScheduled(ctx)
	switch {
	case err != nil:
		scheduler.logger.ErrorContext(ctx, "backup_scheduled_run_failed", slog.Any("error", err))
	case result != nil:
		scheduler.logger.InfoContext(ctx, "backup_scheduled_run_completed", slog.String("filename", result.Filename))
	default:
		scheduler.logger.DebugContext(ctx, "backup_scheduled_run_skipped", slog.String("reason", decision.Reason))
	}
}

// untilNextMinute is the wait until the next whole minute, plus a small
// margin so the tick lands inside that minute.
func untilNextMinute(now time.Time) time.Duration {
	return now.Truncate(time.Minute).Add(time.Minute).Sub(now) + 100*time.Millisecond
}
