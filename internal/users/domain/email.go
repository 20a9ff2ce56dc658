package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Email is a normalized (trimmed, lower-cased) address. The zero value is
// not a valid Email.
type Email struct {
	value string
}

// NewEmail validates raw against the default EmailPolicy.
func NewEmail(raw string) (Email, error) {
	return defaultPolicy.Email.Parse(raw)
}

// Parse normalizes and validates raw.
func (p EmailPolicy) Parse(raw string) (Email, error) {
	if strings.TrimSpace(raw) == "" {
		return Email{}, validationf("email is required")
	}
	if p.MaxLength > 0 && utf8.RuneCountInString(raw) > p.MaxLength {
		return Email{}, validationf(fmt.Sprintf("email must be at most %d characters", p.MaxLength))
	}

	normalized := normalizeEmail(raw)
	if p.Pattern != nil && !p.Pattern.MatchString(normalized) {
		return Email{}, validationf("email format is invalid")
	}

	return Email{value: normalized}, nil
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func (e Email) String() string     { return e.value }
func (e Email) IsZero() bool       { return e.value == "" }
func (e Email) Equal(o Email) bool { return e.value == o.value }
