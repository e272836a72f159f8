package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/cloudmeter/cloudmeter/domain/cloud"
	"github.com/cloudmeter/cloudmeter/ports"
)

// AccountStore implements ports.AccountStore using SQLite.
type AccountStore struct {
	db *DB
}

// NewAccountStore creates a new SQLite account store.
func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{db: db}
}

// Create stores a new account.
func (s *AccountStore) Create(ctx context.Context, a cloud.Account) error {
	var arn string
	if d, ok := a.Details.(cloud.AWSDetails); ok {
		arn = d.ARN
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, name, cloud_type, cloud_account_id, arn, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.UserID, a.Name, string(a.CloudType()), a.CloudAccountID(), arn, a.CreatedAt.UTC())
	return err
}

// Get retrieves an account by ID.
func (s *AccountStore) Get(ctx context.Context, id string) (cloud.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, cloud_type, cloud_account_id, arn, created_at
		FROM accounts WHERE id = ?
	`, id)

	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return cloud.Account{}, ports.ErrNotFound
	}
	if err != nil {
		return cloud.Account{}, err
	}
	return a, nil
}

// ListByUser returns a user's accounts matching the filter, ordered by ID.
// The name pattern is split into words; an account matches when its name
// contains any of them, case-insensitively.
func (s *AccountStore) ListByUser(ctx context.Context, userID string, filter ports.AccountFilter) ([]cloud.Account, error) {
	query := `
		SELECT id, user_id, name, cloud_type, cloud_account_id, arn, created_at
		FROM accounts WHERE user_id = ?
	`
	args := []any{userID}

	if filter.AccountID != "" {
		query += " AND id = ?"
		args = append(args, filter.AccountID)
	}

	if words := strings.Fields(strings.ToLower(filter.NamePattern)); len(words) > 0 {
		var likes []string
		for _, w := range words {
			likes = append(likes, "lower(name) LIKE ?")
			args = append(args, "%"+w+"%")
		}
		query += " AND (" + strings.Join(likes, " OR ") + ")"
	}

	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []cloud.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func scanAccount(row rowScanner) (cloud.Account, error) {
	var (
		a              cloud.Account
		name           sql.NullString
		cloudType      string
		cloudAccountID string
		arn            sql.NullString
		createdAt      time.Time
	)
	if err := row.Scan(&a.ID, &a.UserID, &name, &cloudType, &cloudAccountID, &arn, &createdAt); err != nil {
		return cloud.Account{}, err
	}
	a.Name = name.String
	a.CreatedAt = createdAt.UTC()
	if cloud.Provider(cloudType) == cloud.ProviderAWS {
		a.Details = cloud.AWSDetails{AccountID: cloudAccountID, ARN: arn.String}
	}
	return a, nil
}

// Ensure interface compliance.
var _ ports.AccountStore = (*AccountStore)(nil)
