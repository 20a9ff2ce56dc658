package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinHMACSecretLength is the shortest HS256 secret accepted.
const MinHMACSecretLength = 32

var ErrWeakSecret = fmt.Errorf("jwtx: HS256 secret must be at least %d bytes", MinHMACSecretLength)

// Signer is anything that can sign our claims.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
}

// HS256Signer signs with a shared secret. Its tokens are verified with the
// same secret, so it has no public JWK.
type HS256Signer struct {
	kid    string
	secret []byte
}

// NewSignerHS256 rejects secrets shorter than MinHMACSecretLength.
func NewSignerHS256(kid string, secret []byte) (*HS256Signer, error) {
	if len(secret) < MinHMACSecretLength {
		return nil, ErrWeakSecret
	}
	return &HS256Signer{kid: kid, secret: append([]byte(nil), secret...)}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }
func (s *HS256Signer) KID() string { return s.kid }

func (s *HS256Signer) Sign(claims Claims) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("jwtx: HS256 signer has no secret")
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if s.kid != "" {
		t.Header["kid"] = s.kid
	}
	return t.SignedString(s.secret)
}

// Verifier returns the matching verifier for this signer's secret.
func (s *HS256Signer) Verifier(opts VerifyOptions) *Verifier {
	return NewVerifierHS256(s.secret, opts)
}
