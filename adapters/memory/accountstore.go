package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/cloudmeter/cloudmeter/domain/cloud"
	"github.com/cloudmeter/cloudmeter/ports"
)

// AccountStore is an in-memory implementation of ports.AccountStore.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]cloud.Account
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[string]cloud.Account)}
}

// Create stores a new account.
func (s *AccountStore) Create(ctx context.Context, a cloud.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	return nil
}

// Get retrieves an account by ID.
func (s *AccountStore) Get(ctx context.Context, id string) (cloud.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return cloud.Account{}, ports.ErrNotFound
	}
	return a, nil
}

// ListByUser returns a user's accounts matching the filter, ordered by ID.
func (s *AccountStore) ListByUser(ctx context.Context, userID string, filter ports.AccountFilter) ([]cloud.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matching []cloud.Account
	for _, a := range s.accounts {
		if a.UserID != userID {
			continue
		}
		if filter.AccountID != "" && a.ID != filter.AccountID {
			continue
		}
		if !MatchName(a.Name, filter.NamePattern) {
			continue
		}
		matching = append(matching, a)
	}
	sort.Slice(matching, func(i, j int) bool { return matching[i].ID < matching[j].ID })
	return matching, nil
}

// MatchName reports whether a name contains any word of the pattern,
// case-insensitively. An empty or blank pattern matches everything.
func MatchName(name, pattern string) bool {
	words := strings.Fields(strings.ToLower(pattern))
	if len(words) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// Ensure interface compliance.
var _ ports.AccountStore = (*AccountStore)(nil)
