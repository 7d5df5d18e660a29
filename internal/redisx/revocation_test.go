package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements only the commands the revocation list uses.
type fakeRedis struct {
	redis.Cmdable
	ttl map[string]time.Duration
}

func (f *fakeRedis) Set(ctx context.Context, key string, _ interface{}, exp time.Duration) *redis.StatusCmd {
	f.ttl[key] = exp
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var n int64
	for _, k := range keys {
		if _, ok := f.ttl[k]; ok {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestRevocationList(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rdb := &fakeRedis{ttl: map[string]time.Duration{}}
	list := &RevocationList{RDB: rdb, Now: func() time.Time { return now }}
	ctx := context.Background()

	revoked, err := list.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "abc", now.Add(time.Hour)))
	assert.Equal(t, time.Hour, rdb.ttl["revoked:refresh:abc"])

	revoked, err = list.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevocationListMinTTL(t *testing.T) {
	now := time.Now()
	rdb := &fakeRedis{ttl: map[string]time.Duration{}}
	list := &RevocationList{RDB: rdb, Now: func() time.Time { return now }}

	require.NoError(t, list.Revoke(context.Background(), "old", now.Add(-time.Minute)))
	assert.Equal(t, MinRevocationTTL, rdb.ttl["revoked:refresh:old"])
}
