package jobs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/workbridge/workbridge/internal/jobs"
	"github.com/workbridge/workbridge/internal/platform/httpx"
	"github.com/workbridge/workbridge/internal/platform/mail"
)

// Worker wraps the Asynq server and optional scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// TaskHandler allows injecting custom Asynq handlers during worker setup.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// CronRegistration wires a cron expression to a prepared task.
type CronRegistration struct {
	Spec    string
	Task    *asynq.Task
	Options []asynq.Option
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Logger      *slog.Logger
	Concurrency int
	Handlers    []TaskHandler
	Cron        []CronRegistration
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if len(cfg.Handlers) == 0 {
		return nil, errors.New("worker: no task handlers registered")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueDefault: 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			logger.Warn("task failed", slog.String("type", task.Type()), slog.Int("retried", retried), slog.Any("error", err))
		}),
	})
	mux := asynq.NewServeMux()
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}

	var scheduler *asynq.Scheduler
	if len(cfg.Cron) > 0 {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		for _, entry := range cfg.Cron {
			if entry.Spec == "" || entry.Task == nil {
				continue
			}
			if _, err := scheduler.Register(entry.Spec, entry.Task, entry.Options...); err != nil {
				return nil, err
			}
		}
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, logger: logger}, nil
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return err
	}
}

// Client submits jobs to the queue. It satisfies the mail queue ports of the
// auth and feedback services.
type Client struct {
	client  *asynq.Client
	metrics *jobmetrics.Metrics
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt, metrics *jobmetrics.Metrics) *Client {
	return &Client{client: asynq.NewClient(redisOpts), metrics: metrics}
}

// EnqueueSendEmail enqueues a send-email task.
func (c *Client) EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error) {
	task, err := NewSendEmailTask(payload)
	if err != nil {
		return nil, err
	}
	info, err := c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	c.metrics.Enqueued(TaskTypeSendEmail, err == nil)
	return info, err
}

// EnqueueMail schedules msg for delivery by the worker.
func (c *Client) EnqueueMail(ctx context.Context, msg mail.Message) error {
	_, err := c.EnqueueSendEmail(ctx, SendEmailPayload{To: msg.To, Subject: msg.Subject, Body: msg.Body})
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

// QueueInspector is the slice of asynq.Inspector the health endpoint reads.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	Queues() ([]string, error)
}

// Handler exposes HTTP endpoints for job observability.
type Handler struct {
	inspector QueueInspector
	logger    *slog.Logger
}

// NewHandler constructs an HTTP handler for jobs endpoints.
func NewHandler(inspector QueueInspector, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inspector: inspector, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
}

type queueHealth struct {
	Queue   string `json:"queue"`
	Pending int    `json:"pending"`
	Active  int    `json:"active"`
	Retry   int    `json:"retry"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	out := queueHealth{Queue: QueueDefault}
	if h.inspector == nil {
		httpx.JSON(w, http.StatusOK, out)
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		if h.queueMissing(err) {
			httpx.JSON(w, http.StatusOK, out)
			return
		}
		h.logger.Warn("jobs health", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	if info != nil {
		out.Queue = info.Queue
		out.Pending = info.Pending
		out.Active = info.Active
		out.Retry = info.Retry
	}
	httpx.JSON(w, http.StatusOK, out)
}

// queueMissing reports whether Redis answered but the queue has never seen a
// task. GetQueueInfo does not wrap asynq.ErrQueueNotFound, so the queue list
// decides.
func (h *Handler) queueMissing(err error) bool {
	if errors.Is(err, asynq.ErrQueueNotFound) {
		return true
	}
	queues, listErr := h.inspector.Queues()
	if listErr != nil {
		return false
	}
	return !slices.Contains(queues, QueueDefault)
}
