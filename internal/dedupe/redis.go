package dedupe

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "smartbin:evt:"

type keyClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis implements Deduper with SET NX EX: the first writer claims the key,
// later writers inside the window observe it as seen.
type Redis struct {
	client keyClient
	window time.Duration
}

// NewRedis constructs a Redis-backed deduper with the given window.
func NewRedis(client *redis.Client, window time.Duration) *Redis {
	return &Redis{client: client, window: window}
}

// NewRedisWithClient constructs a deduper over any SetNX/Del-capable client.
func NewRedisWithClient(client keyClient, window time.Duration) *Redis {
	return &Redis{client: client, window: window}
}

// Seen claims eventID and reports whether it was already claimed.
func (d *Redis) Seen(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, keyPrefix+eventID, 1, d.window).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Forget drops a claimed eventID so a redelivery can be processed again.
func (d *Redis) Forget(ctx context.Context, eventID string) error {
	return d.client.Del(ctx, keyPrefix+eventID).Err()
}
