package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/installment-engine/internal/logger"
)

const keyPrefix = "installments:lock:"

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Redis is a Locker shared by every process talking to the same Redis.
// A holder that dies leaves the key to expire after TTL.
type Redis struct {
	client     redis.UniversalClient
	ttl        time.Duration
	retryDelay time.Duration
	log        *logger.Logger
}

type Option func(*Redis)

func WithRetryDelay(d time.Duration) Option {
	return func(r *Redis) { r.retryDelay = d }
}

func WithLogger(log *logger.Logger) Option {
	return func(r *Redis) { r.log = log.WithComponent("lock") }
}

func NewRedis(client redis.UniversalClient, ttl time.Duration, opts ...Option) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	r := &Redis{
		client:     client,
		ttl:        ttl,
		retryDelay: 50 * time.Millisecond,
		log:        logger.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lock retries SET NX until it succeeds or ctx is done.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	name := keyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, name, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
		case <-time.After(r.retryDelay):
		}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.unlock(ctx, name, token); err != nil {
			r.log.Warnw("Failed to release lock", "key", key, "error", err)
		}
	}, nil
}

func (r *Redis) unlock(ctx context.Context, name, token string) error {
	n, err := unlockScript.Run(ctx, r.client, []string{name}, token).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}
