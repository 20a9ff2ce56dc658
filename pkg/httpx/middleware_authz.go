package httpx

import (
	"net/http"
	"slices"
)

// RequireRole lets the request through when the token's role is one of
// roles. It must run after AuthnMiddleware.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(roles, RoleFromContext(r.Context())) {
				w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
				WriteJSON(w, http.StatusForbidden, map[string]string{
					"error":             "insufficient_role",
					"error_description": "this endpoint requires a different role",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
