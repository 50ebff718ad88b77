package memory

import (
	"context"
	"sync"
	"time"

	"alightgram/repository"
)

type tokenRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewTokenRevocations() repository.TokenRevocations {
	return &tokenRevocations{revoked: make(map[string]time.Time)}
}

func (r *tokenRevocations) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[tokenID] = expiresAt
	return nil
}

func (r *tokenRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiresAt, ok := r.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiresAt) {
		delete(r.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
