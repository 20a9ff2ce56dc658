package usersdk

import (
	"context"
	"net/http"
	"net/url"
)

// Admin operations. The session's user must be an active administrator.

func (s *Session) AdminMe(ctx context.Context) (*UserResponse, error) {
	return call[UserResponse](ctx, s.client, http.MethodGet, "/v1/admin/me", s.accessToken, nil, http.StatusOK)
}

func (s *Session) CreateAdmin(ctx context.Context, req CreateAdminRequest) (*UserResponse, error) {
	return call[UserResponse](ctx, s.client, http.MethodPost, "/v1/admin/users", s.accessToken, req, http.StatusCreated)
}

func (s *Session) Promote(ctx context.Context, id string) (*UserResponse, error) {
	return s.adminAction(ctx, id, "promote")
}

func (s *Session) Demote(ctx context.Context, id string) (*UserResponse, error) {
	return s.adminAction(ctx, id, "demote")
}

func (s *Session) Deactivate(ctx context.Context, id string) (*UserResponse, error) {
	return s.adminAction(ctx, id, "deactivate")
}

func (s *Session) Reactivate(ctx context.Context, id string) (*UserResponse, error) {
	return s.adminAction(ctx, id, "reactivate")
}

func (s *Session) DeleteUser(ctx context.Context, id string) error {
	return callNoContent(ctx, s.client, http.MethodDelete, "/v1/admin/users/"+url.PathEscape(id), s.accessToken, nil)
}

func (s *Session) adminAction(ctx context.Context, id, action string) (*UserResponse, error) {
	path := "/v1/admin/users/" + url.PathEscape(id) + "/" + action
	return call[UserResponse](ctx, s.client, http.MethodPut, path, s.accessToken, nil, http.StatusOK)
}
