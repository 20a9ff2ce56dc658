package service

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/users/internal/users/domain"
	"github.com/aussiebroadwan/users/internal/users/store"
	"github.com/aussiebroadwan/users/pkg/slogx"
)

// BootstrapAdmin holds the first administrator's settings.
type BootstrapAdmin struct {
	Email    string
	Name     string
	Password string
}

func (b BootstrapAdmin) configured() bool {
	return b.Email != "" && b.Password != ""
}

// BootstrapService seeds the first administrator into an empty store.
type BootstrapService struct {
	Store  store.Store
	Hasher domain.PasswordHasher
	Policy domain.Policy
	Admin  BootstrapAdmin
}

// Run creates the configured admin when the store has no users. It reports
// whether an admin was created.
func (s *BootstrapService) Run(ctx context.Context) (bool, error) {
	l := slogx.FromContext(ctx)

	if !s.Admin.configured() {
		l.Debug("bootstrap admin not configured")
		return false, nil
	}

	n, err := s.Store.Users().Count(ctx)
	if err != nil {
		return false, mapStoreErr("count users", "", err)
	}
	if n > 0 {
		l.Debug("store already has users, skipping bootstrap", slog.Int64("users", n))
		return false, nil
	}

	policy := s.Policy.OrDefault()
	email, err := policy.Email.Parse(s.Admin.Email)
	if err != nil {
		return false, err
	}
	password, err := policy.Password.Parse(s.Admin.Password)
	if err != nil {
		return false, err
	}
	hash, err := domain.HashPassword(password, s.Hasher)
	if err != nil {
		return false, err
	}

	name := s.Admin.Name
	if name == "" {
		name = "Administrator"
	}
	u, err := domain.CreateAdmin(email, hash, name, "")
	if err != nil {
		return false, err
	}
	if err := insertUser(ctx, s.Store, u); err != nil {
		return false, err
	}

	l.Info("bootstrap admin created", slog.String("user_id", u.ID()), slog.String("email", email.String()))
	return true, nil
}
