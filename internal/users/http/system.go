package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/users/internal/users/store"
	"github.com/aussiebroadwan/users/pkg/httpx"
	"github.com/aussiebroadwan/users/pkg/jwtx"
	"github.com/aussiebroadwan/users/pkg/usersdk"
)

// LivezHandler godoc
//
//	@Summary	Liveness probe
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	usersdk.HealthResponse
//	@Router		/livez [get].
func LivezHandler(startTime time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, usersdk.HealthResponse{
			Status: "ok",
			Uptime: time.Since(startTime).String(),
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary	Readiness probe
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	usersdk.HealthResponse
//	@Failure	503	{object}	usersdk.HealthResponse
//	@Router		/readyz [get].
func ReadyzHandler(startTime time.Time, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"database": "ok"}
		status, code := "ok", http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks["database"] = "error: " + err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, usersdk.HealthResponse{
			Status: status,
			Uptime: time.Since(startTime).String(),
			Checks: checks,
		})
	}
}

func InfoHandler(info usersdk.InfoResponse) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, info)
	}
}

// JWKSHandler publishes the verification keys. HS256 deployments have none.
//
//	@Summary	Get JWKS
//	@Tags		well-known
//	@Produce	json
//	@Success	200	{object}	usersdk.JWKS
//	@Router		/.well-known/jwks.json [get].
func JWKSHandler(keys jwtx.JWKS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, keys)
	}
}
