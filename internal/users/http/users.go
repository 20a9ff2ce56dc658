package http

import (
	"net/http"

	"github.com/aussiebroadwan/users/internal/users/service"
	"github.com/aussiebroadwan/users/pkg/httpx"
	"github.com/aussiebroadwan/users/pkg/usersdk"
)

type UsersHandler struct {
	Users *service.UserService
	Admin *service.AdminService
}

// HandleRegister creates a regular account.
//
//	@Summary	Register a user
//	@Tags		Users
//	@Accept		json
//	@Produce	json
//	@Param		body	body		usersdk.RegisterRequest	true	"Registration"
//	@Success	201		{object}	usersdk.UserResponse
//	@Failure	400		{object}	usersdk.ErrorResponse	"Validation failed"
//	@Failure	409		{object}	usersdk.ErrorResponse	"Email already registered"
//	@Router		/v1/users/register [post].
func (h *UsersHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req usersdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}

	u, err := h.Users.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, userDTO(u))
}

// HandleGet returns a profile. Users read their own active profile. Any
// other id is an admin read, checked against the store.
//
//	@Summary	Get a user profile
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	usersdk.UserResponse
//	@Failure	400	{object}	usersdk.ErrorResponse
//	@Failure	403	{object}	usersdk.ErrorResponse
//	@Failure	404	{object}	usersdk.ErrorResponse
//	@Router		/v1/users/{id} [get].
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	caller := httpx.UserIDFromContext(ctx)

	var (
		u   service.UserResponse
		err error
	)
	if id == caller {
		u, err = h.Users.GetProfile(ctx, id)
	} else {
		u, err = h.Admin.GetUser(ctx, caller, id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userDTO(u))
}

// HandleRename updates the caller's display name.
//
//	@Summary	Rename the calling user
//	@Tags		Users
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"User ID"
//	@Param		body	body		usersdk.RenameRequest	true	"New name"
//	@Success	200		{object}	usersdk.UserResponse
//	@Router		/v1/users/{id} [patch].
func (h *UsersHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if id != httpx.UserIDFromContext(r.Context()) {
		forbidden(w, "cannot rename another user")
		return
	}

	var req usersdk.RenameRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}

	u, err := h.Users.Rename(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userDTO(u))
}

// HandleChangePassword replaces the caller's password.
//
//	@Summary	Change the calling user's password
//	@Tags		Users
//	@Security	BearerAuth
//	@Accept		json
//	@Param		id		path	string							true	"User ID"
//	@Param		body	body	usersdk.ChangePasswordRequest	true	"Passwords"
//	@Success	204
//	@Failure	400	{object}	usersdk.ErrorResponse
//	@Failure	403	{object}	usersdk.ErrorResponse	"Current password is incorrect"
//	@Router		/v1/users/{id}/password [put].
func (h *UsersHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if id != httpx.UserIDFromContext(r.Context()) {
		forbidden(w, "cannot change another user's password")
		return
	}

	var req usersdk.ChangePasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}

	err := h.Users.ChangePassword(r.Context(), service.ChangePasswordInput{
		UserID:          id,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
