package sqlite_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/users/internal/users/domain"
	"github.com/aussiebroadwan/users/internal/users/store"
	"github.com/aussiebroadwan/users/internal/users/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newUser(t *testing.T, email string) *domain.User {
	t.Helper()

	e, err := domain.NewEmail(email)
	require.NoError(t, err)
	u, err := domain.Create(e, "$argon2id$fake", "Ann Example")
	require.NoError(t, err)
	return u
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsers_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u := newUser(t, "Ann@Example.com")
	require.NoError(t, u.RecordLogin())
	require.NoError(t, s.Users().Save(ctx, u))
	require.Equal(t, int64(1), u.Version())

	got, err := s.Users().GetByID(ctx, u.ID())
	require.NoError(t, err)
	require.Equal(t, u.Snapshot(), got.Snapshot())
	require.Empty(t, got.Events())

	byEmail, err := s.Users().GetByEmail(ctx, u.Email())
	require.NoError(t, err)
	require.Equal(t, u.ID(), byEmail.ID())

	exists, err := s.Users().ExistsByEmail(ctx, u.Email())
	require.NoError(t, err)
	require.True(t, exists)

	n, err := s.Users().Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestUsers_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Users().GetByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	e, err := domain.NewEmail("nobody@example.com")
	require.NoError(t, err)
	_, err = s.Users().GetByEmail(ctx, e)
	require.ErrorIs(t, err, store.ErrNotFound)

	exists, err := s.Users().ExistsByEmail(ctx, e)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Users().Save(ctx, newUser(t, "a@b.com")))
	err := s.Users().Save(ctx, newUser(t, "A@B.com"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUsers_UpdateBumpsVersion(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u := newUser(t, "a@b.com")
	require.NoError(t, s.Users().Save(ctx, u))

	require.NoError(t, u.PromoteToAdmin())
	require.NoError(t, s.Users().Save(ctx, u))
	require.Equal(t, int64(2), u.Version())

	got, err := s.Users().GetByID(ctx, u.ID())
	require.NoError(t, err)
	require.True(t, got.IsAdmin())
	require.Equal(t, int64(2), got.Version())
}

func TestUsers_StaleWriteConflicts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u := newUser(t, "a@b.com")
	require.NoError(t, s.Users().Save(ctx, u))

	first, err := s.Users().GetByID(ctx, u.ID())
	require.NoError(t, err)
	second, err := s.Users().GetByID(ctx, u.ID())
	require.NoError(t, err)

	require.NoError(t, first.Deactivate())
	require.NoError(t, s.Users().Save(ctx, first))

	require.NoError(t, second.PromoteToAdmin())
	require.ErrorIs(t, s.Users().Save(ctx, second), store.ErrConflict)

	got, err := s.Users().GetByID(ctx, u.ID())
	require.NoError(t, err)
	require.False(t, got.IsActive())
	require.False(t, got.IsAdmin())
}

func TestUsers_Delete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u := newUser(t, "a@b.com")
	require.NoError(t, s.Users().Save(ctx, u))

	require.NoError(t, s.Users().Delete(ctx, u.ID()))
	require.NoError(t, s.Users().Delete(ctx, u.ID()))
	require.NoError(t, s.Users().Delete(ctx, "missing"))

	got, err := s.Users().GetByID(ctx, u.ID())
	require.NoError(t, err)
	require.False(t, got.IsActive())

	pending, err := s.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, domain.EventUserDeactivated, pending[0].EventType)
	require.Equal(t, u.ID(), pending[0].AggregateID)
}

func TestWithTx_RollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		u := newUser(t, "a@b.com")
		require.NoError(t, tx.Users().Save(ctx, u))
		require.NoError(t, tx.Outbox().Append(ctx, u.Events()...))
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := s.Users().Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	pending, err := s.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestWithTx_GetByIDForUpdate(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u := newUser(t, "a@b.com")
	require.NoError(t, s.Users().Save(ctx, u))

	err := s.WithTx(ctx, func(tx store.Tx) error {
		got, err := tx.Users().GetByIDForUpdate(ctx, u.ID())
		if err != nil {
			return err
		}
		if err := got.PromoteToAdmin(); err != nil {
			return err
		}
		return tx.Users().Save(ctx, got)
	})
	require.NoError(t, err)

	got, err := s.Users().GetByID(ctx, u.ID())
	require.NoError(t, err)
	require.True(t, got.IsAdmin())
}

func TestOutbox_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u := newUser(t, "a@b.com")
	require.NoError(t, u.RecordLogin())
	require.NoError(t, s.Outbox().Append(ctx, u.Events()...))

	pending, err := s.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, domain.EventUserCreated, pending[0].EventType)
	require.Equal(t, domain.EventUserAuthenticated, pending[1].EventType)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(pending[0].Payload, &payload))
	require.Equal(t, u.ID(), payload["userId"])
	require.Equal(t, "a@b.com", payload["email"])
	require.NotEmpty(t, payload["eventId"])

	limited, err := s.Outbox().ListPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	publishedAt := time.Now().Add(-2 * time.Hour)
	require.NoError(t, s.Outbox().MarkPublished(ctx, []string{pending[0].ID}, publishedAt))

	pending, err = s.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	removed, err := s.Outbox().DeletePublishedBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	removed, err = s.Outbox().DeletePublishedBefore(ctx, time.Now())
	require.NoError(t, err)
	require.Zero(t, removed)
}
