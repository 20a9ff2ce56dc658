package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/users/internal/users/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict means the row changed since it was read (version mismatch).
	ErrConflict = errors.New("store: concurrent modification")
)

// Store is the root data access interface. Drivers implement it and hand
// out sub-repositories so a transaction can only be started from the top.
type Store interface {
	Users() Users
	Outbox() Outbox

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or
	// Rollback the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetByID is the plain read. Returns ErrNotFound.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByIDForUpdate reads a user that is about to be saved. Inside a Tx
	// the write lock is taken up front so the read and the save are
	// serialized against other writers.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error)

	GetByEmail(ctx context.Context, email domain.Email) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email domain.Email) (bool, error)

	// Save inserts a new user (Version 0) or updates an existing one when
	// its stored version still matches. On success the user's version is
	// advanced. Returns ErrAlreadyExists on a duplicate email and
	// ErrConflict on a stale version.
	Save(ctx context.Context, u *domain.User) error

	// Delete force-deactivates a user and enqueues the resulting events.
	// Missing or already inactive users are left alone.
	Delete(ctx context.Context, id string) error

	Count(ctx context.Context) (int64, error)
}

// OutboxRecord is a serialized domain event waiting for delivery.
type OutboxRecord struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     []byte
	OccurredAt  time.Time
	PublishedAt *time.Time
}

type Outbox interface {
	// Append serializes events in order.
	Append(ctx context.Context, events ...domain.Event) error

	// ListPending returns up to limit unpublished records, oldest first.
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)

	MarkPublished(ctx context.Context, ids []string, at time.Time) error

	// DeletePublishedBefore purges delivered records older than cutoff and
	// reports how many were removed.
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
