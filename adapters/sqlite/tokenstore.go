package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/cloudmeter/cloudmeter/domain/token"
	"github.com/cloudmeter/cloudmeter/ports"
)

// TokenStore implements ports.TokenStore using SQLite.
type TokenStore struct {
	db *DB
}

// NewTokenStore creates a new SQLite token store.
func NewTokenStore(db *DB) *TokenStore {
	return &TokenStore{db: db}
}

// Create stores a new token.
func (s *TokenStore) Create(ctx context.Context, t token.Token) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_tokens (id, user_id, prefix, secret_hash, created_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.Prefix, t.SecretHash, t.CreatedAt.UTC(), nullTime(t.RevokedAt))
	return err
}

// GetByPrefix retrieves tokens matching a secret prefix.
func (s *TokenStore) GetByPrefix(ctx context.Context, prefix string) ([]token.Token, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, prefix, secret_hash, created_at, revoked_at
		FROM auth_tokens WHERE prefix = ?
	`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []token.Token
	for rows.Next() {
		var (
			t       token.Token
			created time.Time
			revoked sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Prefix, &t.SecretHash, &created, &revoked); err != nil {
			return nil, err
		}
		t.CreatedAt = created.UTC()
		if revoked.Valid {
			at := revoked.Time.UTC()
			t.RevokedAt = &at
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// Revoke marks a token as revoked.
func (s *TokenStore) Revoke(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE auth_tokens SET revoked_at = ? WHERE id = ?
	`, at.UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// Ensure interface compliance.
var _ ports.TokenStore = (*TokenStore)(nil)
