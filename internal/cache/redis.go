package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const maxPingAttempts = 30

// Connect builds a Redis client from either a redis:// URL or a host[:port] address and
// waits until the server answers PING, backing off exponentially between attempts.
func Connect(ctx context.Context, addr string, logger logrus.FieldLogger) (*redis.Client, error) {
	client := redis.NewClient(Options(addr))

	attempt := 0
	ping := func() error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.WithError(err).WithField("attempt", attempt).Warn("redis ping failed")
			return err
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 30 * time.Second
	if err := backoff.Retry(ping, backoff.WithContext(backoff.WithMaxRetries(policy, maxPingAttempts-1), ctx)); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s after %d attempts: %w", addr, attempt, err)
	}
	logger.WithField("addr", addr).Info("redis connection established")
	return client, nil
}

// Options parses addr as a redis:// URL, falling back to a plain address with the default port.
func Options(addr string) *redis.Options {
	if opts, err := redis.ParseURL(addr); err == nil {
		return opts
	}
	if !strings.Contains(addr, ":") {
		addr += ":6379"
	}
	return &redis.Options{
		Addr:         addr,
		MinIdleConns: 1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		PoolTimeout:  4 * time.Second,
		IdleTimeout:  3 * time.Minute,
	}
}
