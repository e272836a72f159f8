package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cloudmeter/cloudmeter/domain/token"
	"github.com/cloudmeter/cloudmeter/ports"
)

// TokenStore is an in-memory implementation of ports.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]token.Token
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]token.Token)}
}

// Create stores a new token.
func (s *TokenStore) Create(ctx context.Context, t token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.ID] = t
	return nil
}

// GetByPrefix retrieves tokens matching a secret prefix.
func (s *TokenStore) GetByPrefix(ctx context.Context, prefix string) ([]token.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matching []token.Token
	for _, t := range s.tokens {
		if t.Prefix == prefix {
			matching = append(matching, t)
		}
	}
	return matching, nil
}

// Revoke marks a token as revoked.
func (s *TokenStore) Revoke(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[id]
	if !ok {
		return ports.ErrNotFound
	}
	t.RevokedAt = &at
	s.tokens[id] = t
	return nil
}

// Ensure interface compliance.
var _ ports.TokenStore = (*TokenStore)(nil)
