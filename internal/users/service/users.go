package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aussiebroadwan/users/internal/users/domain"
	"github.com/aussiebroadwan/users/internal/users/metrics"
	"github.com/aussiebroadwan/users/internal/users/store"
	"github.com/aussiebroadwan/users/pkg/slogx"
)

// UserService implements the self-service account use cases.
type UserService struct {
	Store      store.Store
	Hasher     domain.PasswordHasher
	Policy     domain.Policy
	Uniqueness *UniquenessService
	Metrics    *metrics.Metrics

	decoyOnce sync.Once
	decoyHash domain.PasswordHash
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates a regular user. Inputs are validated before the email
// is checked for uniqueness.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (resp UserResponse, err error) {
	defer func() { s.Metrics.ObserveUseCase("register", err) }()

	email, err := s.Policy.OrDefault().Email.Parse(in.Email)
	if err != nil {
		return UserResponse{}, err
	}
	password, err := s.Policy.OrDefault().Password.Parse(in.Password)
	if err != nil {
		return UserResponse{}, err
	}

	taken, err := s.uniqueness().IsEmailTaken(ctx, email)
	if err != nil {
		return UserResponse{}, mapStoreErr("check email", "", err)
	}
	if taken {
		return UserResponse{}, ErrEmailTaken
	}

	hash, err := domain.HashPassword(password, s.Hasher)
	if err != nil {
		return UserResponse{}, err
	}

	u, err := domain.Create(email, hash, in.Name)
	if err != nil {
		return UserResponse{}, err
	}
	if err := insertUser(ctx, s.Store, u); err != nil {
		return UserResponse{}, err
	}

	slogx.FromContext(ctx).Info("user registered", slog.String("user_id", u.ID()))
	return project(u), nil
}

// Authenticate checks credentials and records the login. Unknown emails
// and wrong passwords fail identically; inactive accounts fail with
// ErrAccountInactive.
func (s *UserService) Authenticate(ctx context.Context, rawEmail, password string) (resp AuthResponse, err error) {
	defer func() { s.Metrics.ObserveUseCase("authenticate", err) }()

	email, err := s.Policy.OrDefault().Email.Parse(rawEmail)
	if err != nil {
		return AuthResponse{}, err
	}
	if password == "" {
		return AuthResponse{}, domain.NewError(domain.ErrValidation, "password is required")
	}

	// Hash verification is slow, so it runs before the write transaction.
	u, err := s.Store.Users().GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		s.verifyDecoy(password)
		return AuthResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthResponse{}, mapStoreErr("load user", "", err)
	}
	if !u.CanLogin() {
		return AuthResponse{}, ErrAccountInactive
	}
	if !u.PasswordHash().Matches(password, s.Hasher) {
		slogx.FromContext(ctx).Info("login rejected", slog.String("user_id", u.ID()))
		return AuthResponse{}, ErrInvalidCredentials
	}

	u, err = mutateUser(ctx, s.Store, u.ID(), func(_ store.Tx, u *domain.User) error {
		if !u.CanLogin() {
			return ErrAccountInactive
		}
		return u.RecordLogin()
	})
	if err != nil {
		return AuthResponse{}, err
	}

	return AuthResponse{User: project(u), LastLoginAt: *u.LastLoginAt()}, nil
}

// GetProfile returns an active user's projection.
func (s *UserService) GetProfile(ctx context.Context, id string) (resp UserResponse, err error) {
	defer func() { s.Metrics.ObserveUseCase("get_profile", err) }()

	u, err := s.Store.Users().GetByID(ctx, id)
	if err != nil {
		return UserResponse{}, mapStoreErr("load user", id, err)
	}
	if !u.IsActive() {
		return UserResponse{}, domain.NewError(domain.ErrState, "user is inactive")
	}
	return project(u), nil
}

type ChangePasswordInput struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
}

// ChangePassword requires the current password. The new one is validated
// only after the current one has been verified.
func (s *UserService) ChangePassword(ctx context.Context, in ChangePasswordInput) (err error) {
	defer func() { s.Metrics.ObserveUseCase("change_password", err) }()

	u, err := s.Store.Users().GetByID(ctx, in.UserID)
	if err != nil {
		return mapStoreErr("load user", in.UserID, err)
	}
	if !u.IsActive() {
		return domain.NewError(domain.ErrState, "inactive users cannot change their password")
	}
	if !u.PasswordHash().Matches(in.CurrentPassword, s.Hasher) {
		return ErrCurrentPassword
	}

	next, err := s.Policy.OrDefault().Password.Parse(in.NewPassword)
	if err != nil {
		return err
	}
	hash, err := domain.HashPassword(next, s.Hasher)
	if err != nil {
		return err
	}

	// The version check in Save rejects the write if the user changed
	// since the password was verified.
	_, err = mutateUser(ctx, s.Store, u.ID(), func(_ store.Tx, fresh *domain.User) error {
		if fresh.Version() != u.Version() {
			return store.ErrConflict
		}
		return fresh.ChangePassword(hash)
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password changed", slog.String("user_id", u.ID()))
	return nil
}

// Rename updates the display name of an active user.
func (s *UserService) Rename(ctx context.Context, id, name string) (resp UserResponse, err error) {
	defer func() { s.Metrics.ObserveUseCase("rename", err) }()

	u, err := mutateUser(ctx, s.Store, id, func(_ store.Tx, u *domain.User) error {
		return u.UpdateName(name)
	})
	if err != nil {
		return UserResponse{}, err
	}
	return project(u), nil
}

// Deactivate turns off an active account.
func (s *UserService) Deactivate(ctx context.Context, id string) (resp UserResponse, err error) {
	defer func() { s.Metrics.ObserveUseCase("deactivate", err) }()

	u, err := mutateUser(ctx, s.Store, id, func(_ store.Tx, u *domain.User) error {
		if !u.IsActive() {
			return domain.NewError(domain.ErrState, "user is already inactive")
		}
		return u.Deactivate()
	})
	if err != nil {
		return UserResponse{}, err
	}

	slogx.FromContext(ctx).Info("user deactivated", slog.String("user_id", id))
	return project(u), nil
}

// Reactivate turns an inactive account back on.
func (s *UserService) Reactivate(ctx context.Context, id string) (resp UserResponse, err error) {
	defer func() { s.Metrics.ObserveUseCase("reactivate", err) }()

	u, err := mutateUser(ctx, s.Store, id, func(_ store.Tx, u *domain.User) error {
		if u.IsActive() {
			return domain.NewError(domain.ErrState, "user is already active")
		}
		return u.Reactivate()
	})
	if err != nil {
		return UserResponse{}, err
	}

	slogx.FromContext(ctx).Info("user reactivated", slog.String("user_id", id))
	return project(u), nil
}

// verifyDecoy runs one hash verification against a fixed hash so an
// unknown email costs as much as a wrong password.
func (s *UserService) verifyDecoy(password string) {
	s.decoyOnce.Do(func() {
		if h, err := s.Hasher.Hash("decoy"); err == nil {
			s.decoyHash = domain.PasswordHash(h)
		}
	})
	_ = s.decoyHash.Matches(password, s.Hasher)
}

func (s *UserService) uniqueness() *UniquenessService {
	if s.Uniqueness != nil {
		return s.Uniqueness
	}
	return &UniquenessService{Store: s.Store}
}
