package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/users/internal/users/domain"
	"github.com/aussiebroadwan/users/internal/users/service"
	"github.com/aussiebroadwan/users/pkg/idx"
	"github.com/aussiebroadwan/users/pkg/slogx"
	"github.com/aussiebroadwan/users/pkg/usersdk"
)

// writeError maps a use-case error to a status code and error body.
// Unclassified errors are logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		usersdk.WriteError(w, status, code, "internal server error")
		return
	}

	slogx.FromContext(r.Context()).Debug("request rejected", "status", status, "err", err)
	usersdk.WriteError(w, status, code, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, usersdk.ErrorCodeInvalidCredentials
	case errors.Is(err, service.ErrAccountInactive):
		return http.StatusUnauthorized, usersdk.ErrorCodeAccountInactive
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, usersdk.ErrorCodeInvalidRequest
	case errors.Is(err, domain.ErrAuthorization):
		return http.StatusForbidden, usersdk.ErrorCodeAccessDenied
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, usersdk.ErrorCodeNotFound
	case errors.Is(err, domain.ErrState):
		return http.StatusConflict, usersdk.ErrorCodeInvalidState
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, usersdk.ErrorCodeConflict
	default:
		return http.StatusInternalServerError, usersdk.ErrorCodeServerError
	}
}

// pathID reads the {id} path value, answering 400 when it is not a ULID.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		usersdk.WriteError(w, http.StatusBadRequest, usersdk.ErrorCodeInvalidRequest, "id must be a ULID")
		return "", false
	}
	return id.String(), true
}

func badRequest(w http.ResponseWriter, err error) {
	usersdk.WriteError(w, http.StatusBadRequest, usersdk.ErrorCodeInvalidRequest, err.Error())
}

func forbidden(w http.ResponseWriter, desc string) {
	usersdk.WriteError(w, http.StatusForbidden, usersdk.ErrorCodeAccessDenied, desc)
}

func userDTO(u service.UserResponse) usersdk.UserResponse {
	return usersdk.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role.Wire(),
		CreatedAt: u.CreatedAt,
		IsActive:  u.IsActive,
	}
}
