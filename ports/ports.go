// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/cloudmeter/cloudmeter/domain/cloud"
	"github.com/cloudmeter/cloudmeter/domain/report"
	"github.com/cloudmeter/cloudmeter/domain/token"
)

// ErrNotFound is returned by stores when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Random abstracts randomness for testability.
type Random interface {
	// Bytes generates n random bytes.
	Bytes(n int) ([]byte, error)
	// String generates a random string of n characters.
	String(n int) (string, error)
}

// Hasher hashes and verifies auth token secrets.
type Hasher interface {
	Hash(plaintext string) ([]byte, error)
	Compare(hash []byte, plaintext string) bool
}

// EngineMetrics counts work done by the report engine. Implementations
// must be safe for concurrent use.
type EngineMetrics interface {
	// AddInstancesExamined records instances whose history was inspected.
	AddInstancesExamined(n int)
	// AddEventsSelected records events selected as window-relevant.
	AddEventsSelected(n int)
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// EventStore supplies the power-state event history the accounting engine
// reads. All methods operate on a consistent snapshot; the engine performs
// no retries on failure.
type EventStore interface {
	// EventsInRange returns the events for an instance whose timestamps fall
	// in the half-open range [start, end), ordered by occurrence ascending.
	EventsInRange(ctx context.Context, instanceID string, start, end time.Time) ([]report.Event, error)

	// LatestEventBefore returns the single latest event for an instance
	// strictly before ts, or ErrNotFound when the instance has no prior
	// history.
	LatestEventBefore(ctx context.Context, instanceID string, ts time.Time) (report.Event, error)

	// TagsOf returns the tag set carried by an image. An unknown image has
	// no tags.
	TagsOf(ctx context.Context, imageID string) ([]cloud.Tag, error)

	// Record appends a new event. Events are immutable and append-only.
	Record(ctx context.Context, e report.Event) error
}

// InstanceStore lists the instances the engine computes over.
type InstanceStore interface {
	// ListByAccount returns every instance owned by an account.
	ListByAccount(ctx context.Context, accountID string) ([]cloud.Instance, error)

	// ListByUser returns every instance across all of a user's accounts.
	ListByUser(ctx context.Context, userID string) ([]cloud.Instance, error)
}

// AccountFilter narrows account listings. A zero value matches everything.
type AccountFilter struct {
	// AccountID restricts to a single account when non-empty.
	AccountID string
	// NamePattern is a case-insensitive word filter: an account matches when
	// its name contains any of the pattern's words.
	NamePattern string
}

// AccountStore persists registered cloud accounts.
type AccountStore interface {
	// Get retrieves an account by ID.
	Get(ctx context.Context, id string) (cloud.Account, error)

	// ListByUser returns a user's accounts matching the filter.
	ListByUser(ctx context.Context, userID string, filter AccountFilter) ([]cloud.Account, error)

	// Create stores a new account.
	Create(ctx context.Context, a cloud.Account) error
}

// TokenStore persists API auth tokens.
type TokenStore interface {
	// GetByPrefix retrieves tokens matching a secret prefix (for
	// verification).
	GetByPrefix(ctx context.Context, prefix string) ([]token.Token, error)

	// Create stores a new token.
	Create(ctx context.Context, t token.Token) error

	// Revoke marks a token as revoked.
	Revoke(ctx context.Context, id string, at time.Time) error
}
