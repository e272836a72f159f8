package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cloudmeter/cloudmeter/domain/cloud"
	"github.com/cloudmeter/cloudmeter/ports"
)

// InstanceStore is an in-memory implementation of ports.InstanceStore.
// Instance-to-user resolution goes through the account store.
type InstanceStore struct {
	mu        sync.RWMutex
	instances map[string]cloud.Instance
	accounts  *AccountStore
}

// NewInstanceStore creates a new in-memory instance store backed by the
// given account store for ownership lookups.
func NewInstanceStore(accounts *AccountStore) *InstanceStore {
	return &InstanceStore{
		instances: make(map[string]cloud.Instance),
		accounts:  accounts,
	}
}

// Put stores an instance.
func (s *InstanceStore) Put(inst cloud.Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances[inst.ID] = inst
}

// ListByAccount returns every instance owned by an account, ordered by ID.
func (s *InstanceStore) ListByAccount(ctx context.Context, accountID string) ([]cloud.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matching []cloud.Instance
	for _, inst := range s.instances {
		if inst.AccountID == accountID {
			matching = append(matching, inst)
		}
	}
	sort.Slice(matching, func(i, j int) bool { return matching[i].ID < matching[j].ID })
	return matching, nil
}

// ListByUser returns every instance across all of a user's accounts.
func (s *InstanceStore) ListByUser(ctx context.Context, userID string) ([]cloud.Instance, error) {
	accounts, err := s.accounts.ListByUser(ctx, userID, ports.AccountFilter{})
	if err != nil {
		return nil, err
	}

	var all []cloud.Instance
	for _, a := range accounts {
		instances, err := s.ListByAccount(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		all = append(all, instances...)
	}
	return all, nil
}

// Ensure interface compliance.
var _ ports.InstanceStore = (*InstanceStore)(nil)
