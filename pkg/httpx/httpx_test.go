package httpx_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/users/pkg/httpx"
	"github.com/aussiebroadwan/users/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	claims *jwtx.Claims
	err    error
}

func (s stubVerifier) Verify(string) (*jwtx.Claims, error) { return s.claims, s.err }

func okHandler(t *testing.T, wantUser string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, wantUser, httpx.UserIDFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "h") }), mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "h"}, order)
}

func TestAuthnMiddleware(t *testing.T) {
	claims := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}, Role: "User"}

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		httpx.AuthnMiddleware(stubVerifier{claims: claims})(okHandler(t, "u1")).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		httpx.AuthnMiddleware(stubVerifier{err: errors.New("bad")})(okHandler(t, "u1")).ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer tok")
		rec := httptest.NewRecorder()
		httpx.AuthnMiddleware(stubVerifier{claims: claims})(okHandler(t, "u1")).ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	admin := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "a1"}, Role: "Admin"}
	user := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}, Role: "User"}

	serve := func(c *jwtx.Claims) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		h := httpx.Chain(okHandler(t, c.Subject), httpx.AuthnMiddleware(stubVerifier{claims: c}), httpx.RequireRole("Admin"))
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusNoContent, serve(admin))
	require.Equal(t, http.StatusForbidden, serve(user))
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"required"`
	}

	decode := func(raw string) error {
		var b body
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
		return httpx.DecodeJSON(httptest.NewRecorder(), req, &b)
	}

	require.NoError(t, decode(`{"email":"a@b.com","name":"Ann"}`))
	require.ErrorContains(t, decode(``), "empty")
	require.ErrorContains(t, decode(`{"email":`), "invalid JSON")
	require.ErrorContains(t, decode(`{"email":"a@b.com","name":"Ann","admin":true}`), "invalid JSON")
	require.ErrorContains(t, decode(`{"email":"a@b.com","name":"Ann"} {}`), "single JSON object")
	require.ErrorContains(t, decode(`{"email":"a@b.com"}`), `name failed "required"`)
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteJSON(rec, http.StatusCreated, map[string]string{"ok": "yes"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"ok":"yes"}`, rec.Body.String())
}
