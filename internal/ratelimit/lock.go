package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Compare-and-delete: only the holder's token may release the lease,
// so a holder that outlived its TTL cannot free a successor's.
var releaseLease = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`)

// lease is a single-holder redis lock bound to one key. It expires on
// its own, so a crashed holder never wedges the next election.
type lease struct {
	client *redis.Client
	key    string
}

func newLease(client *redis.Client, key string) *lease {
	return &lease{client: client, key: key}
}

// Acquire takes the lease for ttl. ok reports whether this caller won;
// the returned token is required to release early.
func (l *lease) Acquire(ctx context.Context, ttl time.Duration) (token string, ok bool, err error) {
	if ttl <= 0 {
		return "", false, errors.New("lease ttl must be positive")
	}

	token = uuid.NewString()
	ok, err = l.client.SetNX(ctx, l.key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release frees the lease if token still holds it. Releasing an
// expired or stolen lease is a no-op.
func (l *lease) Release(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return releaseLease.Run(ctx, l.client, []string{l.key}, token).Err()
}
