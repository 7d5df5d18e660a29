package memory

import (
	"context"
	"sync"
	"time"
)

// RevocationList keeps revoked token ids until their expiry.
type RevocationList struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewRevocationList() *RevocationList {
	return &RevocationList{entries: map[string]time.Time{}, now: time.Now}
}

func (l *RevocationList) Revoke(_ context.Context, jti string, until time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[jti] = until
	return nil
}

func (l *RevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	until, ok := l.entries[jti]
	if !ok {
		return false, nil
	}
	if l.now().After(until) {
		delete(l.entries, jti)
		return false, nil
	}
	return true, nil
}
