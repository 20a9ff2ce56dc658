package service

import (
	"context"

	"github.com/aussiebroadwan/users/internal/users/domain"
	"github.com/aussiebroadwan/users/internal/users/store"
)

// persist saves u and enqueues its pending events in the same transaction.
// The caller clears the events once the transaction has committed.
func persist(ctx context.Context, tx store.Tx, u *domain.User) error {
	if err := tx.Users().Save(ctx, u); err != nil {
		return err
	}
	return tx.Outbox().Append(ctx, u.Events()...)
}

// mutateUser loads id for update, applies fn and persists the result in one
// transaction. Events are drained after commit.
func mutateUser(
	ctx context.Context,
	st store.Store,
	id string,
	fn func(tx store.Tx, u *domain.User) error,
) (*domain.User, error) {
	var out *domain.User

	err := st.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(tx, u); err != nil {
			return err
		}
		if err := persist(ctx, tx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, mapStoreErr("mutate user", id, err)
	}

	out.ClearEvents()
	return out, nil
}

// insertUser persists a freshly created aggregate and its events.
func insertUser(ctx context.Context, st store.Store, u *domain.User) error {
	err := st.WithTx(ctx, func(tx store.Tx) error {
		return persist(ctx, tx, u)
	})
	if err != nil {
		return mapStoreErr("insert user", u.ID(), err)
	}

	u.ClearEvents()
	return nil
}
