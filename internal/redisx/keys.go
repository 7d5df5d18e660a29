package redisx

import "time"

const (
	// Revoked refresh token: revoked:refresh:{jti} -> "1", expires with the token.
	KeyRevokedRefresh = "revoked:refresh:%s"
)

// MinRevocationTTL keeps a just-expiring token on the list long enough to
// cover clock skew between API instances.
var MinRevocationTTL = 30 * time.Second
