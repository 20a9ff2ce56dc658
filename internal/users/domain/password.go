package domain

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maskedPassword = "******** (protected)"

// Password is a plaintext secret that satisfied the strength policy. It
// only lives long enough to be hashed or verified and never prints itself.
type Password struct {
	raw string
}

// NewPassword validates raw against the default PasswordPolicy.
func NewPassword(raw string) (Password, error) {
	return defaultPolicy.Password.Parse(raw)
}

// Parse checks raw rule by rule and reports the first violation:
// empty, too short, digit, upper case, lower case, special, denylisted.
func (p PasswordPolicy) Parse(raw string) (Password, error) {
	if strings.TrimSpace(raw) == "" {
		return Password{}, validationf("password is required")
	}
	if utf8.RuneCountInString(raw) < p.MinLength {
		return Password{}, validationf(fmt.Sprintf("password must be at least %d characters", p.MinLength))
	}
	if !strings.ContainsFunc(raw, unicode.IsDigit) {
		return Password{}, validationf("password must contain at least one digit")
	}
	if !strings.ContainsFunc(raw, unicode.IsUpper) {
		return Password{}, validationf("password must contain at least one uppercase letter")
	}
	if !strings.ContainsFunc(raw, unicode.IsLower) {
		return Password{}, validationf("password must contain at least one lowercase letter")
	}
	if p.Specials != "" && !strings.ContainsAny(raw, p.Specials) {
		return Password{}, validationf("password must contain at least one special character (" + p.Specials + ")")
	}
	if p.denied(raw) {
		return Password{}, validationf("password is too common")
	}

	return Password{raw: raw}, nil
}

// Plaintext exposes the secret for hashing.
func (p Password) Plaintext() string { return p.raw }

func (p Password) Equal(o Password) bool { return p.raw == o.raw }
func (p Password) IsZero() bool          { return p.raw == "" }

func (p Password) String() string               { return maskedPassword }
func (p Password) GoString() string             { return maskedPassword }
func (p Password) LogValue() slog.Value         { return slog.StringValue(maskedPassword) }
func (p Password) MarshalText() ([]byte, error) { return []byte(maskedPassword), nil }

// PasswordHasher turns plaintext into an encoded hash and checks it later.
// Verify returns nil only on a match.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) error
}

// PasswordHash is the encoded, salted hash stored on a User.
type PasswordHash string

// HashPassword derives the stored credential for p.
func HashPassword(p Password, h PasswordHasher) (PasswordHash, error) {
	if p.IsZero() {
		return "", validationf("password is required")
	}
	encoded, err := h.Hash(p.raw)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return PasswordHash(encoded), nil
}

// Matches reports whether candidate is the password behind h.
func (h PasswordHash) Matches(candidate string, v PasswordHasher) bool {
	if h == "" {
		return false
	}
	return v.Verify(candidate, string(h)) == nil
}
