// Package hasher hashes API token secrets for at-rest storage. Only the
// hash is ever persisted; the plaintext secret exists once, at mint time.
package hasher

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/cloudmeter/cloudmeter/ports"
)

// Bcrypt hashes token secrets with bcrypt. Every verification pays the
// full cost factor, so keep it aligned with API latency budgets.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher. Costs outside bcrypt's supported
// range fall back to the library default.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash derives the storable hash of a token secret.
func (h *Bcrypt) Hash(secret string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(secret), h.cost)
}

// Compare reports whether secret matches the stored hash.
func (h *Bcrypt) Compare(hash []byte, secret string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(secret)) == nil
}

// Ensure interface compliance.
var _ ports.Hasher = (*Bcrypt)(nil)

// Fake stores secrets verbatim so tests can mint and verify tokens
// without paying bcrypt cost. Never use outside tests.
type Fake struct{}

// Hash returns the secret unchanged.
func (Fake) Hash(secret string) ([]byte, error) {
	return []byte(secret), nil
}

// Compare is plain string equality.
func (Fake) Compare(hash []byte, secret string) bool {
	return string(hash) == secret
}

// Ensure interface compliance.
var _ ports.Hasher = Fake{}
