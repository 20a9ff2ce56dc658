package jwtx

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// VerifyOptions captures the expectations a token must meet.
type VerifyOptions struct {
	// Issuer the token must carry. Empty means "don't care".
	Issuer string

	// Audience values, at least one of which must be present.
	Audience []string

	// Leeway allows small clock skew on exp/nbf/iat.
	Leeway time.Duration

	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
}

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrAlgMismatch  = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidToken = errors.New("jwtx: invalid token")
)

// Verifier checks a single algorithm against a single key.
type Verifier struct {
	alg  string
	key  any
	opts VerifyOptions
}

func NewVerifierHS256(secret []byte, opts VerifyOptions) *Verifier {
	return &Verifier{alg: jwt.SigningMethodHS256.Alg(), key: append([]byte(nil), secret...), opts: opts}
}

func NewVerifierEdDSA(pub ed25519.PublicKey, opts VerifyOptions) *Verifier {
	return &Verifier{alg: jwt.SigningMethodEdDSA.Alg(), key: pub, opts: opts}
}

func (v *Verifier) Alg() string { return v.alg }

// Verify parses tokenStr and returns its claims. Tokens signed with any other
// algorithm are rejected before the key is consulted.
func (v *Verifier) Verify(tokenStr string) (*Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.alg}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.opts.Leeway),
	}
	if v.opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.opts.Issuer))
	}
	if len(v.opts.Audience) > 0 {
		parserOpts = append(parserOpts, jwt.WithAudience(v.opts.Audience...))
	}
	if v.opts.Now != nil {
		parserOpts = append(parserOpts, jwt.WithTimeFunc(v.opts.Now))
	}

	claims := &Claims{}
	token, err := jwt.NewParser(parserOpts...).ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func classify(err error) error {
	var kind error
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		kind = ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		// golang-jwt reports a disallowed alg as a signature error.
		kind = ErrInvalidSig
		if strings.Contains(err.Error(), "signing method") {
			kind = ErrAlgMismatch
		}
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		kind = ErrAlgMismatch
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		kind = ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		kind = ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		kind = ErrIssuer
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		kind = ErrAudience
	default:
		kind = ErrInvalidToken
	}
	return fmt.Errorf("%w: %v", kind, err)
}
