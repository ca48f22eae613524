package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Options locates the Redis instance shared by the chat relay and the job
// queue.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// AsynqOpt returns the same connection settings for asynq clients, servers
// and inspectors.
func (o Options) AsynqOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: o.Addr, Password: o.Password, DB: o.DB}
}

// New creates a new Redis client and verifies connectivity.
func New(ctx context.Context, opts Options) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("platform/cache: address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping %s/%d: %w", opts.Addr, opts.DB, err)
	}

	return client, nil
}
