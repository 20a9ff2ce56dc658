package service

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/users/internal/users/domain"
	"github.com/aussiebroadwan/users/internal/users/store"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so the two cannot be told apart.
	ErrInvalidCredentials = domain.NewError(domain.ErrAuthorization, "invalid email or password")

	// ErrAccountInactive is returned when a deactivated account logs in.
	ErrAccountInactive = domain.NewError(domain.ErrAuthorization, "account is inactive")

	ErrCurrentPassword = domain.NewError(domain.ErrAuthorization, "current password is incorrect")
	ErrEmailTaken      = domain.NewError(domain.ErrConflict, "email is already registered")
	ErrConcurrentWrite = domain.NewError(domain.ErrConflict, "user was modified concurrently, retry the request")
)

func userNotFound(id string) error {
	return domain.NewError(domain.ErrNotFound, fmt.Sprintf("user %s not found", id))
}

// mapStoreErr translates store sentinels into domain kinds. Other errors
// are wrapped with op for context.
func mapStoreErr(op, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return userNotFound(id)
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrEmailTaken
	case errors.Is(err, store.ErrConflict):
		return ErrConcurrentWrite
	}

	var derr *domain.Error
	if errors.As(err, &derr) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
