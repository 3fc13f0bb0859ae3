package app

import (
	"context"
	"time"

	pkgcron "github.com/echo88/core/internal/pkg/cron"
	sessionpkg "github.com/echo88/core/internal/pkg/session"
	"github.com/echo88/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, svcs *services, sessions *sessionpkg.Store, tasks *taskqueue.Service, logger *zap.Logger) {
	sched.Register(pkgcron.Job{
		Name:        "purge_expired_stories",
		Description: "delete stories past their 24h window and their view rows",
		Interval:    time.Hour,
		Fn: func(ctx context.Context) error {
			n, err := svcs.stories.PurgeExpired()
			if err != nil {
				logger.Warn("story purge failed", zap.Error(err))
				return err
			}
			if n > 0 {
				logger.Info("purged expired stories", zap.Int64("count", n))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "purge_dead_sessions",
		Description: "delete expired and revoked sessions older than 30 days",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			cutoff := time.Now().AddDate(0, 0, -30)
			n, err := sessions.PurgeDead(cutoff)
			if err != nil {
				logger.Warn("session purge failed", zap.Error(err))
				return err
			}
			if n > 0 {
				logger.Info("purged dead sessions", zap.Int64("count", n))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "purge_expired_tokens",
		Description: "delete expired and used verification and reset tokens",
		Interval:    6 * time.Hour,
		Fn: func(ctx context.Context) error {
			n, err := svcs.auth.PurgeExpiredTokens()
			if err != nil {
				logger.Warn("token purge failed", zap.Error(err))
				return err
			}
			if n > 0 {
				logger.Info("purged expired tokens", zap.Int64("count", n))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "clean_finished_tasks",
		Description: "remove completed queue tasks older than 24h",
		Interval:    time.Hour,
		Fn: func(ctx context.Context) error {
			beforeMS := time.Now().Add(-24 * time.Hour).UnixMilli()
			return tasks.DeleteCompleted(ctx, beforeMS)
		},
	})
}
