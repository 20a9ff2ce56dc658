package service

import (
	"context"

	"github.com/aussiebroadwan/users/internal/users/domain"
	"github.com/aussiebroadwan/users/internal/users/store"
)

// UniquenessService answers whether an email is already registered. The
// answer is advisory: the unique index on users.email is what finally
// rejects a racing duplicate. It must not be called inside a transaction.
type UniquenessService struct {
	Store store.Store
}

func (s *UniquenessService) IsEmailTaken(ctx context.Context, email domain.Email) (bool, error) {
	return s.Store.Users().ExistsByEmail(ctx, email)
}
