package sqlite

import (
	"context"

	"github.com/cloudmeter/cloudmeter/domain/cloud"
	"github.com/cloudmeter/cloudmeter/ports"
)

// InstanceStore implements ports.InstanceStore using SQLite.
type InstanceStore struct {
	db *DB
}

// NewInstanceStore creates a new SQLite instance store.
func NewInstanceStore(db *DB) *InstanceStore {
	return &InstanceStore{db: db}
}

// Put stores or replaces an instance.
func (s *InstanceStore) Put(ctx context.Context, inst cloud.Instance) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO instances (id, account_id, cloud_instance_id, region)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_id = excluded.account_id,
			cloud_instance_id = excluded.cloud_instance_id,
			region = excluded.region
	`, inst.ID, inst.AccountID, inst.CloudInstanceID, inst.Region)
	return err
}

// ListByAccount returns every instance owned by an account, ordered by ID.
func (s *InstanceStore) ListByAccount(ctx context.Context, accountID string) ([]cloud.Instance, error) {
	return s.list(ctx, `
		SELECT id, account_id, cloud_instance_id, region
		FROM instances WHERE account_id = ? ORDER BY id
	`, accountID)
}

// ListByUser returns every instance across all of a user's accounts.
func (s *InstanceStore) ListByUser(ctx context.Context, userID string) ([]cloud.Instance, error) {
	return s.list(ctx, `
		SELECT i.id, i.account_id, i.cloud_instance_id, i.region
		FROM instances i
		JOIN accounts a ON a.id = i.account_id
		WHERE a.user_id = ?
		ORDER BY i.id
	`, userID)
}

func (s *InstanceStore) list(ctx context.Context, query string, arg string) ([]cloud.Instance, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []cloud.Instance
	for rows.Next() {
		var inst cloud.Instance
		if err := rows.Scan(&inst.ID, &inst.AccountID, &inst.CloudInstanceID, &inst.Region); err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

// Ensure interface compliance.
var _ ports.InstanceStore = (*InstanceStore)(nil)
