package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/users/internal/users/domain"
	"github.com/aussiebroadwan/users/internal/users/metrics"
	"github.com/aussiebroadwan/users/internal/users/store"
	"github.com/aussiebroadwan/users/pkg/slogx"
)

// AdminService implements the use cases reserved for active administrators.
// Each one checks the acting admin before it looks at the target.
type AdminService struct {
	Store      store.Store
	Hasher     domain.PasswordHasher
	Policy     domain.Policy
	Uniqueness *UniquenessService
	Metrics    *metrics.Metrics
}

// loadActor resolves the acting admin and applies RequireActiveAdmin. A
// missing actor is an authorization failure, not a not-found.
func loadActor(ctx context.Context, users store.Users, actorID string) (*domain.User, error) {
	actor, err := users.GetByID(ctx, actorID)
	if errors.Is(err, store.ErrNotFound) {
		actor, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := domain.RequireActiveAdmin(actor); err != nil {
		return nil, err
	}
	return actor, nil
}

type CreateAdminInput struct {
	CreatorID string
	Email     string
	Password  string
	Name      string
}

// CreateAdminUser registers a new administrator on behalf of CreatorID.
func (s *AdminService) CreateAdminUser(ctx context.Context, in CreateAdminInput) (resp UserResponse, err error) {
	defer func() { s.Metrics.ObserveUseCase("create_admin", err) }()

	if _, err := loadActor(ctx, s.Store.Users(), in.CreatorID); err != nil {
		return UserResponse{}, mapStoreErr("load actor", in.CreatorID, err)
	}

	policy := s.Policy.OrDefault()
	email, err := policy.Email.Parse(in.Email)
	if err != nil {
		return UserResponse{}, err
	}
	password, err := policy.Password.Parse(in.Password)
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
	u, err := domain.CreateAdmin(email, hash, in.Name, in.CreatorID)
	if err != nil {
		return UserResponse{}, err
	}

	// The creator is checked again inside the transaction in case it was
	// deactivated while the password was being hashed.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := loadActor(ctx, tx.Users(), in.CreatorID); err != nil {
			return err
		}
		return persist(ctx, tx, u)
	})
	if err != nil {
		return UserResponse{}, mapStoreErr("insert admin", u.ID(), err)
	}
	u.ClearEvents()

	slogx.FromContext(ctx).Info("admin created",
		slog.String("user_id", u.ID()),
		slog.String("created_by", in.CreatorID),
	)
	return project(u), nil
}

// PromoteUserToAdmin elevates an active regular user.
func (s *AdminService) PromoteUserToAdmin(ctx context.Context, adminID, userID string) (resp UserResponse, err error) {
	defer func() { s.Metrics.ObserveUseCase("promote", err) }()

	u, err := s.asAdmin(ctx, adminID, userID, func(_ *domain.User, target *domain.User) error {
		if !target.IsActive() {
			return domain.NewError(domain.ErrState, "inactive users cannot be promoted")
		}
		return target.PromoteToAdmin()
	})
	if err != nil {
		return UserResponse{}, err
	}

	slogx.FromContext(ctx).Info("user promoted", slog.String("user_id", userID), slog.String("admin_id", adminID))
	return project(u), nil
}

// DemoteAdminToUser removes admin rights from another active admin.
func (s *AdminService) DemoteAdminToUser(ctx context.Context, requesterID, adminID string) (resp UserResponse, err error) {
	defer func() { s.Metrics.ObserveUseCase("demote", err) }()

	u, err := s.asAdmin(ctx, requesterID, adminID, func(actor *domain.User, target *domain.User) error {
		switch {
		case !target.IsActive():
			return domain.NewError(domain.ErrState, "inactive users cannot be demoted")
		case !target.IsAdmin():
			return domain.NewError(domain.ErrState, "user is not an administrator")
		case target.ID() == actor.ID():
			return domain.NewError(domain.ErrState, "administrators cannot demote themselves")
		}
		return target.DemoteToUser()
	})
	if err != nil {
		return UserResponse{}, err
	}

	slogx.FromContext(ctx).Info("admin demoted", slog.String("user_id", adminID), slog.String("admin_id", requesterID))
	return project(u), nil
}

// Me returns the acting administrator, rechecked against the store.
func (s *AdminService) Me(ctx context.Context, adminID string) (resp UserResponse, err error) {
	defer func() { s.Metrics.ObserveUseCase("admin_me", err) }()

	actor, err := loadActor(ctx, s.Store.Users(), adminID)
	if err != nil {
		return UserResponse{}, mapStoreErr("load actor", adminID, err)
	}
	return project(actor), nil
}

// GetUser returns any user, inactive ones included, to an active admin.
func (s *AdminService) GetUser(ctx context.Context, adminID, userID string) (resp UserResponse, err error) {
	defer func() { s.Metrics.ObserveUseCase("admin_get_user", err) }()

	users := s.Store.Users()
	if _, err := loadActor(ctx, users, adminID); err != nil {
		return UserResponse{}, mapStoreErr("load actor", adminID, err)
	}
	u, err := users.GetByID(ctx, userID)
	if err != nil {
		return UserResponse{}, mapStoreErr("load user", userID, err)
	}
	return project(u), nil
}

// DeleteUser force-deactivates userID through the repository. Deleting an
// already inactive user is a no-op.
func (s *AdminService) DeleteUser(ctx context.Context, adminID, userID string) (err error) {
	defer func() { s.Metrics.ObserveUseCase("delete", err) }()

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		actor, err := loadActor(ctx, tx.Users(), adminID)
		if err != nil {
			return err
		}
		if actor.ID() == userID {
			return domain.NewError(domain.ErrState, "administrators cannot delete themselves")
		}
		if _, err := tx.Users().GetByID(ctx, userID); err != nil {
			return err
		}
		return tx.Users().Delete(ctx, userID)
	})
	if err != nil {
		return mapStoreErr("delete user", userID, err)
	}

	slogx.FromContext(ctx).Info("user deleted", slog.String("user_id", userID), slog.String("admin_id", adminID))
	return nil
}

// DeactivateUser turns off userID on behalf of adminID.
func (s *AdminService) DeactivateUser(ctx context.Context, adminID, userID string) (resp UserResponse, err error) {
	defer func() { s.Metrics.ObserveUseCase("admin_deactivate", err) }()

	u, err := s.asAdmin(ctx, adminID, userID, func(_ *domain.User, target *domain.User) error {
		if !target.IsActive() {
			return domain.NewError(domain.ErrState, "user is already inactive")
		}
		return target.Deactivate()
	})
	if err != nil {
		return UserResponse{}, err
	}

	slogx.FromContext(ctx).Info("user deactivated", slog.String("user_id", userID), slog.String("admin_id", adminID))
	return project(u), nil
}

// ReactivateUser turns userID back on on behalf of adminID.
func (s *AdminService) ReactivateUser(ctx context.Context, adminID, userID string) (resp UserResponse, err error) {
	defer func() { s.Metrics.ObserveUseCase("admin_reactivate", err) }()

	u, err := s.asAdmin(ctx, adminID, userID, func(_ *domain.User, target *domain.User) error {
		if target.IsActive() {
			return domain.NewError(domain.ErrState, "user is already active")
		}
		return target.Reactivate()
	})
	if err != nil {
		return UserResponse{}, err
	}

	slogx.FromContext(ctx).Info("user reactivated", slog.String("user_id", userID), slog.String("admin_id", adminID))
	return project(u), nil
}

// asAdmin checks the actor, then loads the target for update and applies fn
// in the same transaction.
func (s *AdminService) asAdmin(
	ctx context.Context,
	actorID, targetID string,
	fn func(actor, target *domain.User) error,
) (*domain.User, error) {
	var out *domain.User

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		actor, err := loadActor(ctx, tx.Users(), actorID)
		if err != nil {
			return err
		}
		target, err := tx.Users().GetByIDForUpdate(ctx, targetID)
		if err != nil {
			return err
		}
		if err := fn(actor, target); err != nil {
			return err
		}
		if err := persist(ctx, tx, target); err != nil {
			return err
		}
		out = target
		return nil
	})
	if err != nil {
		return nil, mapStoreErr("admin update", targetID, err)
	}

	out.ClearEvents()
	return out, nil
}

func (s *AdminService) uniqueness() *UniquenessService {
	if s.Uniqueness != nil {
		return s.Uniqueness
	}
	return &UniquenessService{Store: s.Store}
}
