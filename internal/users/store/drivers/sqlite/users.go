package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/users/internal/users/domain"
	"github.com/aussiebroadwan/users/internal/users/store"
)

const userColumns = `id, email, password_hash, name, role, is_active, created_at, last_login_at, version`

type usersRepo struct {
	q    querier
	inTx bool

	// root is set outside a transaction so Delete can open its own.
	root *Store
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetByIDForUpdate issues a no-op write first when running in a transaction
// so SQLite takes the RESERVED lock before the read.
func (r *usersRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error) {
	if r.inTx {
		if _, err := r.q.ExecContext(ctx, `UPDATE users SET version = version WHERE id = ?`, id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *usersRepo) GetByEmail(ctx context.Context, email domain.Email) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email.String())
	return scanUser(row)
}

func (r *usersRepo) ExistsByEmail(ctx context.Context, email domain.Email) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE email = ?`, email.String()).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *usersRepo) Save(ctx context.Context, u *domain.User) error {
	s := u.Snapshot()

	if s.Version == 0 {
		_, err := r.q.ExecContext(ctx,
			`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)`,
			s.ID, s.Email, s.PasswordHash, s.Name, string(s.Role), s.IsActive,
			formatTime(s.CreatedAt), mapOptionalTime(s.LastLoginAt),
		)
		if err != nil {
			return mapConstraint(err)
		}
		u.Persisted(1)
		return nil
	}

	res, err := r.q.ExecContext(ctx,
		`UPDATE users
		    SET email = ?, password_hash = ?, name = ?, role = ?, is_active = ?,
		        last_login_at = ?, version = version + 1
		  WHERE id = ? AND version = ?`,
		s.Email, s.PasswordHash, s.Name, string(s.Role), s.IsActive,
		mapOptionalTime(s.LastLoginAt), s.ID, s.Version,
	)
	if err != nil {
		return mapConstraint(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: user %s at version %d", store.ErrConflict, s.ID, s.Version)
	}

	u.Persisted(s.Version + 1)
	return nil
}

func (r *usersRepo) Delete(ctx context.Context, id string) error {
	if !r.inTx {
		return r.root.WithTx(ctx, func(tx store.Tx) error {
			return tx.Users().Delete(ctx, id)
		})
	}

	u, err := r.GetByIDForUpdate(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !u.IsActive() {
		return nil
	}

	if err := u.Deactivate(); err != nil {
		return err
	}
	if err := r.Save(ctx, u); err != nil {
		return err
	}
	if err := (&outboxRepo{q: r.q}).Append(ctx, u.Events()...); err != nil {
		return err
	}
	u.ClearEvents()
	return nil
}

func (r *usersRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		s           domain.Snapshot
		role        string
		createdAt   string
		lastLoginAt sql.NullString
	)

	err := row.Scan(&s.ID, &s.Email, &s.PasswordHash, &s.Name, &role, &s.IsActive, &createdAt, &lastLoginAt, &s.Version)
	if err != nil {
		return nil, mapNotFound(err)
	}

	s.Role = domain.Role(role)
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if s.LastLoginAt, err = mapNullTimePtr(lastLoginAt); err != nil {
		return nil, err
	}

	return domain.Restore(s)
}
