package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/users/internal/users/service"
	"github.com/aussiebroadwan/users/pkg/httpx"
	"github.com/aussiebroadwan/users/pkg/usersdk"
)

type AuthHandler struct {
	Users  *service.UserService
	Tokens *service.TokenService
}

// HandleLogin authenticates and issues an access token.
//
//	@Summary	Log in with email and password
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		usersdk.LoginRequest	true	"Credentials"
//	@Success	200		{object}	usersdk.LoginResponse
//	@Failure	401		{object}	usersdk.ErrorResponse	"Invalid credentials or inactive account"
//	@Router		/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req usersdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}

	auth, err := h.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tok, err := h.Tokens.Issue(auth.User)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, usersdk.LoginResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   int(time.Until(tok.ExpiresAt).Seconds()),
		ExpiresAt:   tok.ExpiresAt,
		User:        userDTO(auth.User),
		LastLoginAt: auth.LastLoginAt,
	})
}

// HandleValidate reports whether a token is valid. An invalid token is a
// normal 200 response with valid=false.
//
//	@Summary	Validate an access token
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		usersdk.ValidateRequest	true	"Token"
//	@Success	200		{object}	usersdk.ValidateResponse
//	@Router		/v1/auth/validate [post].
func (h *AuthHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req usersdk.ValidateRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}

	claims := h.Tokens.Validate(req.Token)
	if claims == nil {
		httpx.WriteJSON(w, http.StatusOK, usersdk.ValidateResponse{Valid: false})
		return
	}

	resp := usersdk.ValidateResponse{
		Valid:   true,
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Role:    claims.Role,
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		resp.ExpiresAt = &exp
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleLogout acknowledges a logout. Tokens are stateless, so clients
// simply discard theirs.
//
//	@Summary	Log out
//	@Tags		Auth
//	@Success	204
//	@Router		/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
