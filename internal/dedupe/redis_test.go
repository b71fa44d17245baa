package dedupe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeSetNX struct {
	keys map[string]struct{}
	err  error

	lastKey string
	lastTTL time.Duration
}

func (f *fakeSetNX) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	f.lastKey, f.lastTTL = key, expiration
	if f.err != nil {
		cmd := redis.NewBoolCmd(ctx)
		cmd.SetErr(f.err)
		return cmd
	}
	if f.keys == nil {
		f.keys = map[string]struct{}{}
	}
	if _, exists := f.keys[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = struct{}{}
	return redis.NewBoolResult(true, nil)
}

func (f *fakeSetNX) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		cmd := redis.NewIntCmd(ctx)
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, key := range keys {
		if _, exists := f.keys[key]; exists {
			delete(f.keys, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedis_SeenFirstThenDuplicate(t *testing.T) {
	t.Parallel()
	fake := &fakeSetNX{}
	d := NewRedisWithClient(fake, 10*time.Minute)
	ctx := context.Background()

	seen, err := d.Seen(ctx, "evt-1")
	require.NoError(t, err)
	require.False(t, seen)
	require.Equal(t, "smartbin:evt:evt-1", fake.lastKey)
	require.Equal(t, 10*time.Minute, fake.lastTTL)

	seen, err = d.Seen(ctx, "evt-1")
	require.NoError(t, err)
	require.True(t, seen)

	seen, err = d.Seen(ctx, "evt-2")
	require.NoError(t, err)
	require.False(t, seen)
}

func TestRedis_ForgetReleasesClaim(t *testing.T) {
	t.Parallel()
	fake := &fakeSetNX{}
	d := NewRedisWithClient(fake, time.Minute)
	ctx := context.Background()

	seen, err := d.Seen(ctx, "evt-1")
	require.NoError(t, err)
	require.False(t, seen)

	require.NoError(t, d.Forget(ctx, "evt-1"))

	seen, err = d.Seen(ctx, "evt-1")
	require.NoError(t, err)
	require.False(t, seen, "a released ID must be claimable again")
}

func TestRedis_Error(t *testing.T) {
	t.Parallel()
	fake := &fakeSetNX{err: errors.New("conn refused")}
	d := NewRedisWithClient(fake, time.Minute)

	_, err := d.Seen(context.Background(), "evt-1")
	require.Error(t, err)
}

func TestNoop(t *testing.T) {
	t.Parallel()
	var d Noop
	for i := 0; i < 3; i++ {
		seen, err := d.Seen(context.Background(), "evt-1")
		require.NoError(t, err)
		require.False(t, seen)
	}
	require.NoError(t, d.Forget(context.Background(), "evt-1"))
}
