package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/workbridge/workbridge/internal/jobs"
)

// AuditPruner deletes audit rows recorded before a cutoff.
type AuditPruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// AuditPruneJob enforces the audit log retention window.
type AuditPruneJob struct {
	Pruner    AuditPruner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics

	now func() time.Time
}

// NewAuditPruneJob wires dependencies for the prune handler.
func NewAuditPruneJob(pruner AuditPruner, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditPruneJob {
	return &AuditPruneJob{Pruner: pruner, Retention: retention, Logger: logger, Metrics: metrics, now: time.Now}
}

// Handle processes TaskTypeAuditPrune tasks.
func (j *AuditPruneJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Pruner == nil {
		return errors.New("audit prune job: handler not configured")
	}
	if j.Retention <= 0 {
		return fmt.Errorf("audit prune job: retention must be positive: %w", asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskTypeAuditPrune)
	defer func() { err = tracker.End(err) }()

	now := time.Now
	if j.now != nil {
		now = j.now
	}
	cutoff := now().UTC().Add(-j.Retention)
	deleted, err := j.Pruner.Prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("audit prune job: %w", err)
	}
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("audit logs pruned", slog.Time("before", cutoff), slog.Int64("deleted", deleted))
	return nil
}
