package domain

import (
	"fmt"
	"strings"
)

// Role is the privilege level of a user.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

func (r Role) String() string { return string(r) }

// Wire is the lower-case spelling used in tokens and API bodies.
func (r Role) Wire() string { return strings.ToLower(string(r)) }

// ParseRole accepts the stored spelling of a role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	}
	return "", validationf(fmt.Sprintf("unknown role %q", s))
}
