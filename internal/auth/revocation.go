package auth

import (
	"context"
	"time"
)

// RevocationList stores the ids (jti) of refresh tokens that were logged out.
// Entries only need to live until the token would have expired anyway.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
