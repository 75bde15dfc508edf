// Package db owns the PostgreSQL pool shared by the catalog and coupon repositories.
package db

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const (
	maxPingAttempts = 10
	pingTimeout     = 5 * time.Second
)

type options struct {
	maxConns int32
	policy   backoff.BackOff
	logger   logrus.FieldLogger
}

type Option func(*options)

// WithMaxConns caps the pool size. Non-positive values keep the pgx default.
func WithMaxConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConns = int32(n)
		}
	}
}

// WithBackOff replaces the exponential policy used while waiting for the server.
func WithBackOff(policy backoff.BackOff) Option {
	return func(o *options) { o.policy = policy }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Connect opens a pgx pool and waits until the server answers a ping, retrying with
// backoff so services can start before the database is up.
func Connect(ctx context.Context, dsn string, opts ...Option) (*pgxpool.Pool, error) {
	discard := logrus.New()
	discard.Out = io.Discard
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 10 * time.Second
	o := options{policy: policy, logger: discard}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute
	if o.maxConns > 0 {
		cfg.MaxConns = o.maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	log := o.logger.WithFields(logrus.Fields{
		"host":     cfg.ConnConfig.Host,
		"database": cfg.ConnConfig.Database,
	})
	attempt := 0
	ping := func() error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			log.WithError(err).WithField("attempt", attempt).Warn("postgres ping failed")
			return err
		}
		return nil
	}
	if err := backoff.Retry(ping, backoff.WithContext(backoff.WithMaxRetries(o.policy, maxPingAttempts-1), ctx)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping after %d attempts: %w", attempt, err)
	}

	log.WithField("max_conns", cfg.MaxConns).Info("postgres pool ready")
	return pool, nil
}
