package service

import (
	"time"

	"github.com/aussiebroadwan/users/internal/users/domain"
)

// UserResponse is the read projection of a User returned by every use case.
type UserResponse struct {
	ID        string
	Email     string
	Name      string
	Role      domain.Role
	CreatedAt time.Time
	IsActive  bool
}

// AuthResponse is returned by Authenticate.
type AuthResponse struct {
	User        UserResponse
	LastLoginAt time.Time
}

func project(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID(),
		Email:     u.Email().String(),
		Name:      u.Name(),
		Role:      u.Role(),
		CreatedAt: u.CreatedAt(),
		IsActive:  u.IsActive(),
	}
}
