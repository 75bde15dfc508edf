package basket

import (
	"context"
	"errors"
	"io"
	"time"

	"shopbasket/internal/domain"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

type redisRepo struct {
	client    *redis.Client
	logger    logrus.FieldLogger
	keyPrefix string
	ttl       time.Duration
}

type Option func(*redisRepo)

// WithKeyPrefix namespaces basket keys, e.g. "basket:".
func WithKeyPrefix(prefix string) Option {
	return func(r *redisRepo) { r.keyPrefix = prefix }
}

// WithTTL sets an expiry on every write. Zero keeps entries until removed.
func WithTTL(ttl time.Duration) Option {
	return func(r *redisRepo) { r.ttl = ttl }
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *redisRepo) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRedis(client *redis.Client, opts ...Option) Repository {
	discard := logrus.New()
	discard.Out = io.Discard
	r := &redisRepo{client: client, logger: discard}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *redisRepo) Get(ctx context.Context, userName string) (*domain.Cart, error) {
	payload, err := r.client.Get(ctx, r.key(userName)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.logger.WithField("user", userName).Debug("basket repo: miss")
		return nil, nil
	}
	if err != nil {
		r.logger.WithError(err).WithField("user", userName).Error("basket repo: get failed")
		return nil, err
	}
	cart, err := decode(userName, payload)
	if err != nil {
		r.logger.WithError(err).WithField("user", userName).Error("basket repo: undecodable payload")
		return nil, err
	}
	return cart, nil
}

func (r *redisRepo) Set(ctx context.Context, cart domain.Cart) error {
	payload, err := encode(cart)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(cart.UserName), payload, r.ttl).Err(); err != nil {
		r.logger.WithError(err).WithField("user", cart.UserName).Error("basket repo: set failed")
		return err
	}
	r.logger.WithFields(logrus.Fields{"user": cart.UserName, "items": len(cart.Items)}).Debug("basket repo: stored")
	return nil
}

func (r *redisRepo) Remove(ctx context.Context, userName string) error {
	if err := r.client.Del(ctx, r.key(userName)).Err(); err != nil {
		r.logger.WithError(err).WithField("user", userName).Error("basket repo: delete failed")
		return err
	}
	return nil
}

func (r *redisRepo) key(userName string) string {
	return r.keyPrefix + userName
}
