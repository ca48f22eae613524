package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), Options{Addr: mr.Addr(), DB: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.Select(2)
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewRequiresPassword(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("hunter2")

	_, err := New(context.Background(), Options{Addr: mr.Addr()})
	require.Error(t, err)

	client, err := New(context.Background(), Options{Addr: mr.Addr(), Password: "hunter2"})
	require.NoError(t, err)
	_ = client.Close()
}

func TestNewFailsWhenServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), Options{Addr: addr})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "platform/cache: ping")

	_, err = New(context.Background(), Options{})
	assert.Error(t, err)
}

func TestAsynqOpt(t *testing.T) {
	opts := Options{Addr: "redis:6379", Password: "pw", DB: 3}
	assert.Equal(t, asynq.RedisClientOpt{Addr: "redis:6379", Password: "pw", DB: 3}, opts.AsynqOpt())
}
