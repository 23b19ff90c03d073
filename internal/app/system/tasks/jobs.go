// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ReadNotificationPruner deletes read notifications created before a cutoff.
type ReadNotificationPruner interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationRetentionJob creates a job that removes read notifications
// older than retention. Unread notifications are never pruned.
func NotificationRetentionJob(store ReadNotificationPruner, logger *zap.Logger, retention time.Duration) Job {
	return Job{
		Name:     "notification-retention",
		Interval: 1 * time.Hour, // Run hourly
		Run: func(ctx context.Context) error {
			cutoff := time.Now().UTC().Add(-retention)
			count, err := store.DeleteReadBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("pruned read notifications",
					zap.Int64("count", count),
					zap.Duration("retention", retention))
			}
			return nil
		},
	}
}
