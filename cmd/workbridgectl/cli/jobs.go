package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/workbridge/workbridge/jobs"
)

// QueueInspector is the part of asynq.Inspector the CLI reads.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	ListScheduledTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	Close() error
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *jobs.Client
	inspector QueueInspector
}

// NewJobsCLI initialises the CLI helpers against the given Redis connection.
func NewJobsCLI(opt asynq.RedisClientOpt) *JobsCLI {
	return &JobsCLI{client: jobs.NewClient(opt, nil), inspector: asynq.NewInspector(opt)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// TestMail enqueues a probe mail so operators can check the worker and relay.
func (c *JobsCLI) TestMail(ctx context.Context, to string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	return c.client.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      to,
		Subject: "Workbridge mail check",
		Body:    "This message was queued by workbridgectl.\n",
	})
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Archived  int
}

func (s QueueStats) String() string {
	return fmt.Sprintf("queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d",
		s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived)
}

// InspectQueue reports the metrics of the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
	}
	return stats, nil
}

// ListScheduled returns scheduled task infos for observability.
func (c *JobsCLI) ListScheduled(ctx context.Context, size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
}
