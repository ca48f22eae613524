package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/workbridge/workbridge/internal/jobs"
	"github.com/workbridge/workbridge/internal/platform/mail"
)

// MailJob delivers queued mail.
type MailJob struct {
	Sender  mail.Sender
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewMailJob wires dependencies for the mail handler.
func NewMailJob(sender mail.Sender, logger *slog.Logger, metrics *jobmetrics.Metrics) *MailJob {
	return &MailJob{Sender: sender, Logger: logger, Metrics: metrics}
}

// Handle processes TaskTypeSendEmail tasks. Undecodable payloads are not retried.
func (j *MailJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Sender == nil {
		return errors.New("mail job: handler not configured")
	}
	tracker := j.Metrics.Track(TaskTypeSendEmail)
	defer func() { err = tracker.End(err) }()

	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("mail job: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	logger := j.logger().With(slog.String("to", payload.To), slog.String("subject", payload.Subject))
	if err := j.Sender.Send(ctx, payload.Message()); err != nil {
		logger.Warn("mail delivery failed", slog.Any("error", err))
		return err
	}
	logger.Info("mail delivered")
	return nil
}

func (j *MailJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
