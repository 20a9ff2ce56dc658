package service

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/users/internal/users/domain"
	"github.com/aussiebroadwan/users/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTokenService(t *testing.T) *TokenService {
	t.Helper()

	signer, err := jwtx.NewSignerHS256("test", []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	opts := jwtx.VerifyOptions{Issuer: "users", Audience: []string{"users-api"}}
	return &TokenService{
		Signer:   signer,
		Verifier: signer.Verifier(opts),
		TTL:      time.Hour,
		Issuer:   "users",
		Audience: []string{"users-api"},
	}
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := newTokenService(t)
	u := UserResponse{ID: "01JUSER", Email: "a@b.com", Name: "Ann", Role: domain.RoleAdmin, IsActive: true}

	tok, err := svc.Issue(u)
	require.NoError(t, err)
	require.Equal(t, "Bearer", tok.TokenType)
	require.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)

	claims := svc.Validate(tok.AccessToken)
	require.NotNil(t, claims)
	require.Equal(t, "01JUSER", claims.Subject)
	require.Equal(t, "a@b.com", claims.Email)
	require.Equal(t, "admin", claims.Role)
	require.NotEmpty(t, claims.ID)
}

func TestTokenService_InactiveUser(t *testing.T) {
	svc := newTokenService(t)

	_, err := svc.Issue(UserResponse{ID: "01JUSER", IsActive: false})
	require.ErrorIs(t, err, domain.ErrState)
}

func TestTokenService_ValidateRejects(t *testing.T) {
	svc := newTokenService(t)
	u := UserResponse{ID: "01JUSER", Email: "a@b.com", Name: "Ann", Role: domain.RoleUser, IsActive: true}

	tok, err := svc.Issue(u)
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		require.Nil(t, svc.Validate(""))
	})

	t.Run("malformed", func(t *testing.T) {
		require.Nil(t, svc.Validate("not.a.jwt"))
	})

	t.Run("tampered", func(t *testing.T) {
		require.Nil(t, svc.Validate(tok.AccessToken+"x"))
	})

	t.Run("expired", func(t *testing.T) {
		old := *svc
		old.Now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
		expired, err := old.Issue(u)
		require.NoError(t, err)
		require.Nil(t, svc.Validate(expired.AccessToken))
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := *svc
		other.Audience = []string{"someone-else"}
		foreign, err := other.Issue(u)
		require.NoError(t, err)
		require.Nil(t, svc.Validate(foreign.AccessToken))
	})
}
