package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options overrides connection settings carried by the URL. Zero values keep the URL's.
type Options struct {
	PoolSize    int
	DialTimeout time.Duration
}

const defaultStartupPing = 5 * time.Second

// NewClient connects to the operation-record cache and pings it once.
// The service refuses to start with caching enabled and the server down.
func NewClient(ctx context.Context, redisURL string, opts Options) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if opts.PoolSize > 0 {
		redisOpts.PoolSize = opts.PoolSize
	}

	pingTimeout := defaultStartupPing
	if opts.DialTimeout > 0 {
		redisOpts.DialTimeout = opts.DialTimeout
		pingTimeout = opts.DialTimeout
	}

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", redisOpts.Addr, err)
	}

	return client, nil
}

// HealthCheck adapts a client to the readiness check.
type HealthCheck struct {
	Client redis.UniversalClient
}

// Ping reports whether the cache server answers.
func (h HealthCheck) Ping(ctx context.Context) error {
	return h.Client.Ping(ctx).Err()
}
