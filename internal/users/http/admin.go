package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/users/internal/users/service"
	"github.com/aussiebroadwan/users/pkg/httpx"
	"github.com/aussiebroadwan/users/pkg/usersdk"
)

// AdminHandler serves /v1/admin. The acting admin is always the token
// subject; the service re-checks it against the store.
type AdminHandler struct {
	Admin *service.AdminService
}

// HandleMe returns the calling administrator.
//
//	@Summary	Get the calling administrator
//	@Tags		Admin
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	usersdk.UserResponse
//	@Failure	403	{object}	usersdk.ErrorResponse
//	@Router		/v1/admin/me [get].
func (h *AdminHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.Admin.Me(r.Context(), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userDTO(u))
}

// HandleCreate registers a new administrator.
//
//	@Summary	Create an administrator
//	@Tags		Admin
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		usersdk.CreateAdminRequest	true	"New admin"
//	@Success	201		{object}	usersdk.UserResponse
//	@Failure	403		{object}	usersdk.ErrorResponse
//	@Failure	409		{object}	usersdk.ErrorResponse
//	@Router		/v1/admin/users [post].
func (h *AdminHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req usersdk.CreateAdminRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}

	u, err := h.Admin.CreateAdminUser(r.Context(), service.CreateAdminInput{
		CreatorID: httpx.UserIDFromContext(r.Context()),
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, userDTO(u))
}

type adminAction func(ctx context.Context, actorID, targetID string) (service.UserResponse, error)

func (h *AdminHandler) serveAction(w http.ResponseWriter, r *http.Request, action adminAction) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, err := action(r.Context(), httpx.UserIDFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userDTO(u))
}

// HandlePromote grants the administrator role to an active user.
//
//	@Summary	Promote a user to administrator
//	@Tags		Admin
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	usersdk.UserResponse
//	@Failure	409	{object}	usersdk.ErrorResponse
//	@Router		/v1/admin/users/{id}/promote [put].
func (h *AdminHandler) HandlePromote(w http.ResponseWriter, r *http.Request) {
	h.serveAction(w, r, h.Admin.PromoteUserToAdmin)
}

// HandleDemote returns another administrator to the user role.
//
//	@Summary	Demote an administrator
//	@Tags		Admin
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	usersdk.UserResponse
//	@Failure	409	{object}	usersdk.ErrorResponse
//	@Router		/v1/admin/users/{id}/demote [put].
func (h *AdminHandler) HandleDemote(w http.ResponseWriter, r *http.Request) {
	h.serveAction(w, r, h.Admin.DemoteAdminToUser)
}

// HandleDeactivate turns off an active account.
//
//	@Summary	Deactivate a user
//	@Tags		Admin
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	usersdk.UserResponse
//	@Failure	409	{object}	usersdk.ErrorResponse
//	@Router		/v1/admin/users/{id}/deactivate [put].
func (h *AdminHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.serveAction(w, r, h.Admin.DeactivateUser)
}

// HandleReactivate turns an inactive account back on.
//
//	@Summary	Reactivate a user
//	@Tags		Admin
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{object}	usersdk.UserResponse
//	@Failure	409	{object}	usersdk.ErrorResponse
//	@Router		/v1/admin/users/{id}/reactivate [put].
func (h *AdminHandler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	h.serveAction(w, r, h.Admin.ReactivateUser)
}

// HandleDelete force-deactivates a user.
//
//	@Summary	Delete (deactivate) a user
//	@Tags		Admin
//	@Security	BearerAuth
//	@Param		id	path	string	true	"User ID"
//	@Success	204
//	@Failure	404	{object}	usersdk.ErrorResponse
//	@Router		/v1/admin/users/{id} [delete].
func (h *AdminHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Admin.DeleteUser(r.Context(), httpx.UserIDFromContext(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
