package http

import (
	"log/slog"
	"net/http"
	"time"

	_ "github.com/aussiebroadwan/users/api/users" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/aussiebroadwan/users/internal/users/domain"
	"github.com/aussiebroadwan/users/internal/users/metrics"
	"github.com/aussiebroadwan/users/internal/users/service"
	"github.com/aussiebroadwan/users/internal/users/store"
	"github.com/aussiebroadwan/users/pkg/httpx"
	"github.com/aussiebroadwan/users/pkg/jwtx"
	"github.com/aussiebroadwan/users/pkg/slogx"
	"github.com/aussiebroadwan/users/pkg/usersdk"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier  httpx.TokenVerifier
	jwks      jwtx.JWKS
	info      usersdk.InfoResponse
	startTime time.Time
	logger    *slog.Logger
	store     store.Store
	metrics   *metrics.Metrics

	UserService  *service.UserService
	AdminService *service.AdminService
	TokenService *service.TokenService
}

// RouterOptions are the non-service dependencies of a Router.
type RouterOptions struct {
	Verifier httpx.TokenVerifier
	JWKS     jwtx.JWKS
	Info     usersdk.InfoResponse
	Store    store.Store
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

func NewRouter(opts RouterOptions) *Router {
	jwks := opts.JWKS
	if jwks.Keys == nil {
		jwks.Keys = []jwtx.JWK{}
	}

	r := &Router{
		Mux:       http.NewServeMux(),
		verifier:  opts.Verifier,
		jwks:      jwks,
		info:      opts.Info,
		startTime: time.Now(),
		logger:    opts.Logger,
		store:     opts.Store,
		metrics:   opts.Metrics,
	}

	// The metrics middleware wraps the mux directly so it sees the matched
	// route pattern.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		r.metrics.Middleware,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerAuth()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						Users Service API
//	@version					0.1.0
//	@description				Account registration, login and administration with JWT access tokens.
//
//	@contact.name				AussieBroadWAN Team
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{Users: r.UserService, Admin: r.AdminService}

	authn := httpx.AuthnMiddleware(r.verifier)

	r.Mux.Handle("POST /v1/users/register", http.HandlerFunc(h.HandleRegister))
	r.Mux.Handle("GET /v1/users/{id}", httpx.Chain(http.HandlerFunc(h.HandleGet), authn))
	r.Mux.Handle("PATCH /v1/users/{id}", httpx.Chain(http.HandlerFunc(h.HandleRename), authn))
	r.Mux.Handle("PUT /v1/users/{id}/password", httpx.Chain(http.HandlerFunc(h.HandleChangePassword), authn))
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Users: r.UserService, Tokens: r.TokenService}

	r.Mux.Handle("POST /v1/auth/login", http.HandlerFunc(h.HandleLogin))
	r.Mux.Handle("POST /v1/auth/validate", http.HandlerFunc(h.HandleValidate))
	r.Mux.Handle("POST /v1/auth/logout", http.HandlerFunc(h.HandleLogout))
	r.Mux.Handle("GET /.well-known/jwks.json", JWKSHandler(r.jwks))
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{Admin: r.AdminService}

	admin := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole(domain.RoleAdmin.Wire()),
		)
	}

	r.Mux.Handle("GET /v1/admin/me", admin(h.HandleMe))
	r.Mux.Handle("POST /v1/admin/users", admin(h.HandleCreate))
	r.Mux.Handle("PUT /v1/admin/users/{id}/promote", admin(h.HandlePromote))
	r.Mux.Handle("PUT /v1/admin/users/{id}/demote", admin(h.HandleDemote))
	r.Mux.Handle("PUT /v1/admin/users/{id}/deactivate", admin(h.HandleDeactivate))
	r.Mux.Handle("PUT /v1/admin/users/{id}/reactivate", admin(h.HandleReactivate))
	r.Mux.Handle("DELETE /v1/admin/users/{id}", admin(h.HandleDelete))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.store))
	r.Mux.Handle("GET /info", InfoHandler(r.info))
	if r.metrics != nil {
		r.Mux.Handle("GET /metrics", r.metrics.Handler())
	}
}
