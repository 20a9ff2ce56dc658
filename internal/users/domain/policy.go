package domain

import (
	"regexp"
	"strings"
)

// Policy bundles the input rules applied by the value object constructors.
// A Policy is built once at startup and treated as immutable afterwards.
type Policy struct {
	Email    EmailPolicy
	Password PasswordPolicy
}

// DefaultPolicy returns the stock email and password rules.
func DefaultPolicy() Policy {
	return Policy{
		Email:    DefaultEmailPolicy(),
		Password: DefaultPasswordPolicy(),
	}
}

// EmailPolicy controls what NewEmail accepts.
type EmailPolicy struct {
	MaxLength int
	Pattern   *regexp.Regexp
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const emailMaxLength = 254

func DefaultEmailPolicy() EmailPolicy {
	return EmailPolicy{MaxLength: emailMaxLength, Pattern: emailPattern}
}

// PasswordPolicy controls what NewPassword accepts. Denylist keys are
// lower-case.
type PasswordPolicy struct {
	MinLength int
	Specials  string
	Denylist  map[string]struct{}
}

const (
	passwordMinLength = 8
	passwordSpecials  = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

var commonPasswords = []string{
	"123456", "password", "123456789", "12345678", "12345",
	"1234567", "admin", "123123", "qwerty", "abc123",
	"senha123", "fiap123", "password123", "admin123", "123qwe",
}

func DefaultPasswordPolicy() PasswordPolicy {
	p := PasswordPolicy{
		MinLength: passwordMinLength,
		Specials:  passwordSpecials,
	}
	return p.WithDenylist(commonPasswords...)
}

// WithDenylist returns a copy of p whose denylist also holds words. Blank
// entries are skipped.
func (p PasswordPolicy) WithDenylist(words ...string) PasswordPolicy {
	out := make(map[string]struct{}, len(p.Denylist)+len(words))
	for w := range p.Denylist {
		out[w] = struct{}{}
	}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		out[w] = struct{}{}
	}
	p.Denylist = out
	return p
}

func (p PasswordPolicy) denied(raw string) bool {
	_, ok := p.Denylist[strings.ToLower(raw)]
	return ok
}

var defaultPolicy = DefaultPolicy()

// OrDefault fills in whichever half of p was left as the zero value.
func (p Policy) OrDefault() Policy {
	if p.Email.Pattern == nil && p.Email.MaxLength == 0 {
		p.Email = defaultPolicy.Email
	}
	if p.Password.MinLength == 0 && p.Password.Specials == "" && p.Password.Denylist == nil {
		p.Password = defaultPolicy.Password
	}
	return p
}
