package usersdk

import "time"

// Roles as they appear on the wire.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// RegisterRequest is the body of POST /v1/users/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

// CreateAdminRequest is the body of POST /v1/admin/users.
type CreateAdminRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type RenameRequest struct {
	Name string `json:"name" validate:"required"`
}

type ValidateRequest struct {
	Token string `json:"token" validate:"required"`
}

// UserResponse is the public projection of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

// LoginResponse carries the access token and the authenticated user.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
	LastLoginAt time.Time    `json:"last_login_at"`
}

// ValidateResponse reports whether a token is good. Claims are only set
// when Valid is true.
type ValidateResponse struct {
	Valid     bool       `json:"valid"`
	Subject   string     `json:"sub,omitempty"`
	Email     string     `json:"email,omitempty"`
	Name      string     `json:"name,omitempty"`
	Role      string     `json:"role,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime,omitempty"`
	Checks map[string]string `json:"checks,omitempty"`
}

type InfoResponse struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Algorithm string `json:"algorithm"`
	Issuer    string `json:"issuer"`
}

// JWKS mirrors the /.well-known/jwks.json document.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Kid string `json:"kid,omitempty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
}
