package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList is the redis-backed refresh-token blacklist.
type RevocationList struct {
	RDB redis.Cmdable
	Now func() time.Time
}

func (l *RevocationList) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

func (l *RevocationList) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(l.now())
	if ttl < MinRevocationTTL {
		ttl = MinRevocationTTL
	}
	return l.RDB.Set(ctx, fmt.Sprintf(KeyRevokedRefresh, jti), "1", ttl).Err()
}

func (l *RevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return Exists(ctx, l.RDB, fmt.Sprintf(KeyRevokedRefresh, jti))
}
