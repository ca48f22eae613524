package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/workbridge/workbridge/internal/jobs"
	"github.com/workbridge/workbridge/internal/platform/mail"
)

type fakeSender struct {
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestClientEnqueuesMail(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()}, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	t.Cleanup(func() { _ = client.Close() })

	err := client.EnqueueMail(context.Background(), mail.Message{To: "cara@example.com", Subject: "Welcome", Body: "hi"})
	require.NoError(t, err)

	pending, err := mr.List("asynq:{default}:pending")
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	err = client.EnqueueMail(context.Background(), mail.Message{Subject: "no one"})
	assert.Error(t, err)
}

func TestMailJobDelivers(t *testing.T) {
	sender := &fakeSender{}
	job := NewMailJob(sender, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewSendEmailTask(SendEmailPayload{To: "admin@example.com", Subject: "New complaint #3", Body: "body"})
	require.NoError(t, err)
	assert.Equal(t, TaskTypeSendEmail, task.Type())

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, mail.Message{To: "admin@example.com", Subject: "New complaint #3", Body: "body"}, sender.sent[0])
}

func TestMailJobFailures(t *testing.T) {
	sender := &fakeSender{err: errors.New("relay refused")}
	job := NewMailJob(sender, nil, nil)

	task, err := NewSendEmailTask(SendEmailPayload{To: "a@example.com"})
	require.NoError(t, err)
	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)

	err = job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	var nilJob *MailJob
	assert.Error(t, nilJob.Handle(context.Background(), task))
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return f.info, f.err }

func (f fakeInspector) Queues() ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{QueueDefault}, nil
}

func healthOf(t *testing.T, h *Handler) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	rr := healthOf(t, NewHandler(fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4, Active: 1, Retry: 2}}, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var out queueHealth
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	assert.Equal(t, queueHealth{Queue: "default", Pending: 4, Active: 1, Retry: 2}, out)

	rr = healthOf(t, NewHandler(fakeInspector{err: errors.New("redis down")}, slogDiscard()))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = healthOf(t, NewHandler(nil, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHealthEndpointBeforeFirstTask(t *testing.T) {
	mr := miniredis.RunT(t)
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = inspector.Close() })

	rr := healthOf(t, NewHandler(inspector, slogDiscard()))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var out queueHealth
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	assert.Equal(t, queueHealth{Queue: QueueDefault}, out)

	mr.Close()
	rr = healthOf(t, NewHandler(inspector, slogDiscard()))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestNewWorkerRequiresHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"}})
	assert.Error(t, err)
}

func slogDiscard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNewWorkerRegistersCron(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := asynq.RedisClientOpt{Addr: mr.Addr()}
	handlers := []TaskHandler{{Type: TaskTypeAuditPrune, Handler: func(context.Context, *asynq.Task) error { return nil }}}

	w, err := NewWorker(WorkerConfig{RedisOpts: opts, Handlers: handlers, Cron: []CronRegistration{{Spec: "@daily", Task: NewAuditPruneTask()}}})
	require.NoError(t, err)
	assert.NotNil(t, w.scheduler)

	_, err = NewWorker(WorkerConfig{RedisOpts: opts, Handlers: handlers, Cron: []CronRegistration{{Spec: "every tuesday", Task: NewAuditPruneTask()}}})
	assert.Error(t, err)
}

type fakePruner struct {
	before  time.Time
	deleted int64
	err     error
}

func (f *fakePruner) Prune(_ context.Context, before time.Time) (int64, error) {
	f.before = before
	return f.deleted, f.err
}

func TestAuditPruneJob(t *testing.T) {
	now := time.Date(2024, 6, 30, 3, 0, 0, 0, time.UTC)
	pruner := &fakePruner{deleted: 12}
	job := NewAuditPruneJob(pruner, 30*24*time.Hour, slogDiscard(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.now = func() time.Time { return now }

	require.NoError(t, job.Handle(context.Background(), NewAuditPruneTask()))
	assert.Equal(t, time.Date(2024, 5, 31, 3, 0, 0, 0, time.UTC), pruner.before)

	pruner.err = errors.New("conn closed")
	assert.Error(t, job.Handle(context.Background(), NewAuditPruneTask()))

	job.Retention = 0
	assert.ErrorIs(t, job.Handle(context.Background(), NewAuditPruneTask()), asynq.SkipRetry)

	var nilJob *AuditPruneJob
	assert.Error(t, nilJob.Handle(context.Background(), NewAuditPruneTask()))
}
