package service

import (
	"time"

	"github.com/aussiebroadwan/users/internal/users/domain"
	"github.com/aussiebroadwan/users/pkg/httpx"
	"github.com/aussiebroadwan/users/pkg/jwtx"
)

// Token is an issued bearer token.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// TokenService issues and validates access tokens for user projections.
type TokenService struct {
	Signer   jwtx.Signer
	Verifier httpx.TokenVerifier
	TTL      time.Duration
	Issuer   string
	Audience []string

	// Now overrides the clock in tests.
	Now func() time.Time
}

var ErrTokenForInactive = domain.NewError(domain.ErrState, "cannot issue a token for an inactive user")

// Issue signs an access token for u.
func (s *TokenService) Issue(u UserResponse) (Token, error) {
	if !u.IsActive {
		return Token{}, ErrTokenForInactive
	}

	ttl := s.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	claims := jwtx.NewAccessClaims(u.ID, u.Email, u.Name, u.Role.Wire(), ttl, s.Issuer, s.Audience, now)
	signed, err := s.Signer.Sign(claims)
	if err != nil {
		return Token{}, err
	}

	return Token{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Validate returns the claims of a good token and nil for anything else.
func (s *TokenService) Validate(token string) *jwtx.Claims {
	if token == "" {
		return nil
	}
	claims, err := s.Verifier.Verify(token)
	if err != nil {
		return nil
	}
	return claims
}
