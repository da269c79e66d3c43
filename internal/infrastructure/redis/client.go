package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

// NewClient parses redisURL, connects and pings the server. The caller owns
// the returned client.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// Checker reports redis reachability for readiness probes.
type Checker struct {
	client *redis.Client
}

// NewChecker wraps client.
func NewChecker(client *redis.Client) *Checker {
	return &Checker{client: client}
}

// Name identifies the dependency in readiness output.
func (c *Checker) Name() string { return "redis" }

// Check pings the server.
func (c *Checker) Check(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
