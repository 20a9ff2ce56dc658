package usersdk

import (
	"context"
	"net/http"
	"net/url"
)

// Register creates a regular account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	return call[UserResponse](ctx, c, http.MethodPost, "/v1/users/register", "", req, http.StatusCreated)
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	req := LoginRequest{Email: email, Password: password}
	return call[LoginResponse](ctx, c, http.MethodPost, "/v1/auth/login", "", req, http.StatusOK)
}

// ValidateToken asks the service whether token is valid.
func (c *Client) ValidateToken(ctx context.Context, token string) (*ValidateResponse, error) {
	req := ValidateRequest{Token: token}
	return call[ValidateResponse](ctx, c, http.MethodPost, "/v1/auth/validate", "", req, http.StatusOK)
}

func (c *Client) Logout(ctx context.Context) error {
	return callNoContent(ctx, c, http.MethodPost, "/v1/auth/logout", "", nil)
}

func (c *Client) JWKS(ctx context.Context) (*JWKS, error) {
	return call[JWKS](ctx, c, http.MethodGet, "/.well-known/jwks.json", "", nil, http.StatusOK)
}

func (c *Client) Liveness(ctx context.Context) (*HealthResponse, error) {
	return call[HealthResponse](ctx, c, http.MethodGet, "/livez", "", nil, http.StatusOK)
}

func (c *Client) Readiness(ctx context.Context) (*HealthResponse, error) {
	return call[HealthResponse](ctx, c, http.MethodGet, "/readyz", "", nil, http.StatusOK)
}

func (c *Client) Info(ctx context.Context) (*InfoResponse, error) {
	return call[InfoResponse](ctx, c, http.MethodGet, "/info", "", nil, http.StatusOK)
}

// Profile fetches a user. Non-admins may only fetch themselves.
func (s *Session) Profile(ctx context.Context, id string) (*UserResponse, error) {
	return call[UserResponse](ctx, s.client, http.MethodGet, "/v1/users/"+url.PathEscape(id), s.accessToken, nil, http.StatusOK)
}

func (s *Session) Rename(ctx context.Context, id, name string) (*UserResponse, error) {
	req := RenameRequest{Name: name}
	return call[UserResponse](ctx, s.client, http.MethodPatch, "/v1/users/"+url.PathEscape(id), s.accessToken, req, http.StatusOK)
}

func (s *Session) ChangePassword(ctx context.Context, id, current, next string) error {
	req := ChangePasswordRequest{CurrentPassword: current, NewPassword: next}
	return callNoContent(ctx, s.client, http.MethodPut, "/v1/users/"+url.PathEscape(id)+"/password", s.accessToken, req)
}
