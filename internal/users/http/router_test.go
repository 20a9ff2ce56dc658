package http_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	usershttp "github.com/aussiebroadwan/users/internal/users/http"
	"github.com/aussiebroadwan/users/internal/users/metrics"
	"github.com/aussiebroadwan/users/internal/users/service"
	"github.com/aussiebroadwan/users/internal/users/store/drivers/sqlite"
	"github.com/aussiebroadwan/users/pkg/cryptox"
	"github.com/aussiebroadwan/users/pkg/jwtx"
	"github.com/aussiebroadwan/users/pkg/slogx"
	"github.com/aussiebroadwan/users/pkg/usersdk"
)

const (
	adminEmail    = "root@example.com"
	adminPassword = "Rootpass1!"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	hasher := &cryptox.Hasher{
		Params: cryptox.Argon2Params{Memory: 64, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16},
		Pepper: "pepper",
	}
	m := metrics.New()

	boot := &service.BootstrapService{
		Store:  st,
		Hasher: hasher,
		Admin:  service.BootstrapAdmin{Email: adminEmail, Name: "Root", Password: adminPassword},
	}
	_, err = boot.Run(ctx)
	require.NoError(t, err)

	signer, err := jwtx.NewSignerHS256("test", []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	verifier := signer.Verifier(jwtx.VerifyOptions{Issuer: "users", Audience: []string{"users-api"}, Leeway: time.Second})

	uniq := &service.UniquenessService{Store: st}
	router := usershttp.NewRouter(usershttp.RouterOptions{
		Verifier: verifier,
		Info:     usersdk.InfoResponse{Service: "users", Version: "test", Algorithm: signer.Alg(), Issuer: "users"},
		Store:    st,
		Metrics:  m,
		Logger:   slogx.Discard(),
	})
	router.UserService = &service.UserService{Store: st, Hasher: hasher, Uniqueness: uniq, Metrics: m}
	router.AdminService = &service.AdminService{Store: st, Hasher: hasher, Uniqueness: uniq, Metrics: m}
	router.TokenService = &service.TokenService{
		Signer:   signer,
		Verifier: verifier,
		TTL:      time.Hour,
		Issuer:   "users",
		Audience: []string{"users-api"},
	}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()

	var apiErr *usersdk.Error
	require.True(t, errors.As(err, &apiErr), "expected *usersdk.Error, got %v", err)
	require.Equal(t, status, apiErr.StatusCode)
	if code != "" {
		require.Equal(t, code, apiErr.Code)
	}
}

func login(t *testing.T, c *usersdk.Client, email, password string) (*usersdk.Session, *usersdk.LoginResponse) {
	t.Helper()

	resp, err := c.Login(context.Background(), email, password)
	require.NoError(t, err)
	return c.NewSession(resp.AccessToken), resp
}

func TestRegisterLoginProfile(t *testing.T) {
	srv := newServer(t)
	c := usersdk.NewClient(srv.URL)
	ctx := context.Background()

	user, err := c.Register(ctx, usersdk.RegisterRequest{Email: "a@b.com", Password: "Abcdef1!", Name: "Ann"})
	require.NoError(t, err)
	require.Equal(t, usersdk.RoleUser, user.Role)
	require.True(t, user.IsActive)

	sess, lr := login(t, c, "A@B.com", "Abcdef1!")
	require.Equal(t, "Bearer", lr.TokenType)
	require.Equal(t, user.ID, lr.User.ID)
	require.Positive(t, lr.ExpiresIn)
	require.False(t, lr.LastLoginAt.IsZero())

	me, err := sess.Profile(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "a@b.com", me.Email)

	v, err := c.ValidateToken(ctx, sess.AccessToken())
	require.NoError(t, err)
	require.True(t, v.Valid)
	require.Equal(t, user.ID, v.Subject)
	require.Equal(t, usersdk.RoleUser, v.Role)

	v, err = c.ValidateToken(ctx, "garbage")
	require.NoError(t, err)
	require.False(t, v.Valid)

	require.NoError(t, c.Logout(ctx))
}

func TestRegister_Errors(t *testing.T) {
	srv := newServer(t)
	c := usersdk.NewClient(srv.URL)
	ctx := context.Background()

	_, err := c.Register(ctx, usersdk.RegisterRequest{Email: "a@b.com", Password: "Abcdef1!", Name: "Ann"})
	require.NoError(t, err)

	_, err = c.Register(ctx, usersdk.RegisterRequest{Email: "a@b.com", Password: "Abcdef1!", Name: "Ann"})
	requireAPIError(t, err, http.StatusConflict, usersdk.ErrorCodeConflict)

	_, err = c.Register(ctx, usersdk.RegisterRequest{Email: "c@b.com", Password: "weak", Name: "Cat"})
	requireAPIError(t, err, http.StatusBadRequest, usersdk.ErrorCodeInvalidRequest)

	_, err = c.Register(ctx, usersdk.RegisterRequest{Email: "c@b.com", Name: "Cat"})
	requireAPIError(t, err, http.StatusBadRequest, usersdk.ErrorCodeInvalidRequest)

	resp, err := http.Post(srv.URL+"/v1/users/register", "application/json", strings.NewReader(`{"email":"x@b.com","extra":1}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_Failures(t *testing.T) {
	srv := newServer(t)
	c := usersdk.NewClient(srv.URL)
	ctx := context.Background()

	_, err := c.Login(ctx, adminEmail, "Wrongpass1!")
	requireAPIError(t, err, http.StatusUnauthorized, usersdk.ErrorCodeInvalidCredentials)

	_, err = c.Login(ctx, "nobody@example.com", "Wrongpass1!")
	requireAPIError(t, err, http.StatusUnauthorized, usersdk.ErrorCodeInvalidCredentials)
}

func TestProfile_Authorization(t *testing.T) {
	srv := newServer(t)
	c := usersdk.NewClient(srv.URL)
	ctx := context.Background()

	ann, err := c.Register(ctx, usersdk.RegisterRequest{Email: "a@b.com", Password: "Abcdef1!", Name: "Ann"})
	require.NoError(t, err)
	bob, err := c.Register(ctx, usersdk.RegisterRequest{Email: "b@b.com", Password: "Abcdef1!", Name: "Bob"})
	require.NoError(t, err)

	annSess, _ := login(t, c, "a@b.com", "Abcdef1!")
	_, err = annSess.Profile(ctx, bob.ID)
	requireAPIError(t, err, http.StatusForbidden, usersdk.ErrorCodeAccessDenied)

	adminSess, _ := login(t, c, adminEmail, adminPassword)
	got, err := adminSess.Profile(ctx, ann.ID)
	require.NoError(t, err)
	require.Equal(t, ann.ID, got.ID)

	_, err = c.NewSession("").Profile(ctx, ann.ID)
	requireAPIError(t, err, http.StatusUnauthorized, "")
}

func TestChangePasswordAndRename(t *testing.T) {
	srv := newServer(t)
	c := usersdk.NewClient(srv.URL)
	ctx := context.Background()

	ann, err := c.Register(ctx, usersdk.RegisterRequest{Email: "a@b.com", Password: "Abcdef1!", Name: "Ann"})
	require.NoError(t, err)
	sess, _ := login(t, c, "a@b.com", "Abcdef1!")

	err = sess.ChangePassword(ctx, ann.ID, "Wrong123!", "Newpass1!")
	requireAPIError(t, err, http.StatusForbidden, usersdk.ErrorCodeAccessDenied)

	require.NoError(t, sess.ChangePassword(ctx, ann.ID, "Abcdef1!", "Newpass1!"))
	login(t, c, "a@b.com", "Newpass1!")

	renamed, err := sess.Rename(ctx, ann.ID, "Annabel")
	require.NoError(t, err)
	require.Equal(t, "Annabel", renamed.Name)
}

func TestAdminFlows(t *testing.T) {
	srv := newServer(t)
	c := usersdk.NewClient(srv.URL)
	ctx := context.Background()

	ann, err := c.Register(ctx, usersdk.RegisterRequest{Email: "a@b.com", Password: "Abcdef1!", Name: "Ann"})
	require.NoError(t, err)
	annSess, _ := login(t, c, "a@b.com", "Abcdef1!")
	adminSess, adminLogin := login(t, c, adminEmail, adminPassword)

	_, err = annSess.AdminMe(ctx)
	requireAPIError(t, err, http.StatusForbidden, "")

	me, err := adminSess.AdminMe(ctx)
	require.NoError(t, err)
	require.Equal(t, usersdk.RoleAdmin, me.Role)

	created, err := adminSess.CreateAdmin(ctx, usersdk.CreateAdminRequest{Email: "ops@b.com", Password: "Opspass1!", Name: "Ops"})
	require.NoError(t, err)
	require.Equal(t, usersdk.RoleAdmin, created.Role)

	promoted, err := adminSess.Promote(ctx, ann.ID)
	require.NoError(t, err)
	require.Equal(t, usersdk.RoleAdmin, promoted.Role)

	_, err = adminSess.Promote(ctx, ann.ID)
	requireAPIError(t, err, http.StatusConflict, usersdk.ErrorCodeInvalidState)

	_, err = adminSess.Demote(ctx, adminLogin.User.ID)
	requireAPIError(t, err, http.StatusConflict, usersdk.ErrorCodeInvalidState)

	demoted, err := adminSess.Demote(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, usersdk.RoleUser, demoted.Role)

	deactivated, err := adminSess.Deactivate(ctx, ann.ID)
	require.NoError(t, err)
	require.False(t, deactivated.IsActive)

	_, err = c.Login(ctx, "a@b.com", "Abcdef1!")
	requireAPIError(t, err, http.StatusUnauthorized, usersdk.ErrorCodeAccountInactive)

	reactivated, err := adminSess.Reactivate(ctx, ann.ID)
	require.NoError(t, err)
	require.True(t, reactivated.IsActive)

	require.NoError(t, adminSess.DeleteUser(ctx, ann.ID))
	err = adminSess.DeleteUser(ctx, "01JAAAAAAAAAAAAAAAAAAAAAAA")
	requireAPIError(t, err, http.StatusNotFound, usersdk.ErrorCodeNotFound)
}

func TestDemotedAdminTokenIsRefused(t *testing.T) {
	srv := newServer(t)
	c := usersdk.NewClient(srv.URL)
	ctx := context.Background()

	ann, err := c.Register(ctx, usersdk.RegisterRequest{Email: "a@b.com", Password: "Abcdef1!", Name: "Ann"})
	require.NoError(t, err)
	rootSess, _ := login(t, c, adminEmail, adminPassword)

	ops, err := rootSess.CreateAdmin(ctx, usersdk.CreateAdminRequest{Email: "ops@b.com", Password: "Opspass1!", Name: "Ops"})
	require.NoError(t, err)
	opsSess, _ := login(t, c, "ops@b.com", "Opspass1!")

	got, err := opsSess.Profile(ctx, ann.ID)
	require.NoError(t, err)
	require.Equal(t, ann.ID, got.ID)

	_, err = rootSess.Demote(ctx, ops.ID)
	require.NoError(t, err)

	// The token still claims the admin role until it expires.
	v, err := c.ValidateToken(ctx, opsSess.AccessToken())
	require.NoError(t, err)
	require.Equal(t, usersdk.RoleAdmin, v.Role)

	_, err = opsSess.Profile(ctx, ann.ID)
	requireAPIError(t, err, http.StatusForbidden, usersdk.ErrorCodeAccessDenied)
	_, err = opsSess.AdminMe(ctx)
	requireAPIError(t, err, http.StatusForbidden, usersdk.ErrorCodeAccessDenied)

	self, err := opsSess.Profile(ctx, ops.ID)
	require.NoError(t, err)
	require.Equal(t, usersdk.RoleUser, self.Role)
}

func TestMalformedIDIsRejected(t *testing.T) {
	srv := newServer(t)
	c := usersdk.NewClient(srv.URL)
	ctx := context.Background()
	adminSess, _ := login(t, c, adminEmail, adminPassword)

	_, err := adminSess.Profile(ctx, "not-a-ulid")
	requireAPIError(t, err, http.StatusBadRequest, usersdk.ErrorCodeInvalidRequest)

	_, err = adminSess.Promote(ctx, "not-a-ulid")
	requireAPIError(t, err, http.StatusBadRequest, usersdk.ErrorCodeInvalidRequest)

	err = adminSess.DeleteUser(ctx, "not-a-ulid")
	requireAPIError(t, err, http.StatusBadRequest, usersdk.ErrorCodeInvalidRequest)
}

func TestSystemEndpoints(t *testing.T) {
	srv := newServer(t)
	c := usersdk.NewClient(srv.URL)
	ctx := context.Background()

	live, err := c.Liveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := c.Readiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks["database"])

	info, err := c.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, "HS256", info.Algorithm)

	jwks, err := c.JWKS(ctx)
	require.NoError(t, err)
	require.Empty(t, jwks.Keys)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "users_http_requests_total")
}
