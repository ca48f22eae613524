package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workbridge/workbridge/jobs"
)

type fakeInspector struct {
	info      *asynq.QueueInfo
	scheduled []*asynq.TaskInfo
	err       error
	closed    bool
}

func (f *fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return f.info, f.err }

func (f *fakeInspector) ListScheduledTasks(string, ...asynq.ListOption) ([]*asynq.TaskInfo, error) {
	return f.scheduled, f.err
}

func (f *fakeInspector) Close() error {
	f.closed = true
	return nil
}

func TestInspectQueue(t *testing.T) {
	insp := &fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 2, Retry: 1, Archived: 4}}
	jc := &JobsCLI{inspector: insp}

	stats, err := jc.InspectQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "queue=default pending=2 active=0 scheduled=0 retry=1 archived=4", stats.String())

	insp.err = errors.New("redis down")
	_, err = jc.InspectQueue(context.Background())
	assert.Error(t, err)

	require.NoError(t, jc.Close())
	assert.True(t, insp.closed)
}

func TestJobsCLINotConfigured(t *testing.T) {
	var jc *JobsCLI
	_, err := jc.InspectQueue(context.Background())
	assert.Error(t, err)
	_, err = jc.ListScheduled(context.Background(), 0)
	assert.Error(t, err)
	_, err = jc.TestMail(context.Background(), "a@example.com")
	assert.Error(t, err)
}

func TestTestMailEnqueues(t *testing.T) {
	mr := miniredis.RunT(t)
	jc := &JobsCLI{client: jobs.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()}, nil)}
	t.Cleanup(func() { _ = jc.Close() })

	info, err := jc.TestMail(context.Background(), "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskTypeSendEmail, info.Type)
	assert.Equal(t, jobs.QueueDefault, info.Queue)
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetArgs([]string{"--help"})
	require.NoError(t, root.Execute())
	for _, sub := range []string{"migrate", "seed", "token", "jobs"} {
		assert.Contains(t, out.String(), sub)
	}

	names := map[string][]string{}
	for _, c := range root.Commands() {
		for _, sc := range c.Commands() {
			names[c.Name()] = append(names[c.Name()], sc.Name())
		}
	}
	assert.ElementsMatch(t, []string{"up", "status", "down"}, names["migrate"])
	assert.ElementsMatch(t, []string{"admin"}, names["seed"])
	assert.ElementsMatch(t, []string{"issue"}, names["token"])
	assert.ElementsMatch(t, []string{"stats", "scheduled", "test-mail"}, names["jobs"])
}
