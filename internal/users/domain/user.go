package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aussiebroadwan/users/pkg/idx"
)

const (
	nameMinLength = 2
	nameMaxLength = 100
)

// User is the aggregate root for an account. Fields are only changed through
// its methods; each successful transition may append an Event to the
// buffer returned by Events.
type User struct {
	id           string
	email        Email
	passwordHash PasswordHash
	name         string
	role         Role
	createdAt    time.Time
	lastLoginAt  *time.Time
	isActive     bool
	version      int64

	events []Event
}

// Create registers a regular, active user and records UserCreated.
func Create(email Email, hash PasswordHash, name string) (*User, error) {
	u, err := newUser(email, hash, name, RoleUser)
	if err != nil {
		return nil, err
	}

	u.record(UserCreated{
		EventMeta: newMeta(u.createdAt),
		UserID:    u.id,
		Email:     u.email.String(),
		Name:      u.name,
		CreatedAt: u.createdAt,
	})
	return u, nil
}

// CreateAdmin registers an active administrator. With a creator id it
// records AdminUserCreated, otherwise the admin is self-bootstrapped and
// UserCreated is recorded instead.
func CreateAdmin(email Email, hash PasswordHash, name string, createdByAdminID string) (*User, error) {
	u, err := newUser(email, hash, name, RoleAdmin)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(createdByAdminID) == "" {
		u.record(UserCreated{
			EventMeta: newMeta(u.createdAt),
			UserID:    u.id,
			Email:     u.email.String(),
			Name:      u.name,
			CreatedAt: u.createdAt,
		})
		return u, nil
	}

	u.record(AdminUserCreated{
		EventMeta:        newMeta(u.createdAt),
		NewAdminID:       u.id,
		Email:            u.email.String(),
		Name:             u.name,
		CreatedByAdminID: createdByAdminID,
		CreatedAt:        u.createdAt,
	})
	return u, nil
}

func newUser(email Email, hash PasswordHash, name string, role Role) (*User, error) {
	if email.IsZero() {
		return nil, validationf("email is required")
	}
	if hash == "" {
		return nil, validationf("password is required")
	}
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	return &User{
		id:           idx.New().String(),
		email:        email,
		passwordHash: hash,
		name:         name,
		role:         role,
		createdAt:    now(),
		isActive:     true,
	}, nil
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", validationf("name is required")
	}
	if n := utf8.RuneCountInString(name); n < nameMinLength || n > nameMaxLength {
		return "", validationf(fmt.Sprintf("name must be between %d and %d characters", nameMinLength, nameMaxLength))
	}
	return name, nil
}

// ChangePassword replaces the stored credential of an active user.
func (u *User) ChangePassword(hash PasswordHash) error {
	if !u.isActive {
		return statef("inactive users cannot change their password")
	}
	if hash == "" {
		return validationf("password is required")
	}

	u.passwordHash = hash
	at := now()
	u.record(PasswordChanged{
		EventMeta: newMeta(at),
		UserID:    u.id,
		ChangedAt: at,
	})
	return nil
}

// UpdateName renames an active user. No event is recorded.
func (u *User) UpdateName(name string) error {
	if !u.isActive {
		return statef("inactive users cannot update their name")
	}
	name, err := validateName(name)
	if err != nil {
		return err
	}
	u.name = name
	return nil
}

// RecordLogin stamps lastLoginAt and records UserAuthenticated.
func (u *User) RecordLogin() error {
	if !u.isActive {
		return statef("inactive users cannot log in")
	}

	at := now()
	u.lastLoginAt = &at
	u.record(UserAuthenticated{
		EventMeta: newMeta(at),
		UserID:    u.id,
		Email:     u.email.String(),
		LoginAt:   at,
	})
	return nil
}

func (u *User) Deactivate() error {
	if !u.isActive {
		return statef("user is already inactive")
	}

	u.isActive = false
	at := now()
	u.record(UserDeactivated{
		EventMeta:     newMeta(at),
		UserID:        u.id,
		Email:         u.email.String(),
		DeactivatedAt: at,
	})
	return nil
}

func (u *User) Reactivate() error {
	if u.isActive {
		return statef("user is already active")
	}

	u.isActive = true
	at := now()
	u.record(UserReactivated{
		EventMeta:     newMeta(at),
		UserID:        u.id,
		Email:         u.email.String(),
		ReactivatedAt: at,
	})
	return nil
}

// PromoteToAdmin requires an active regular user.
func (u *User) PromoteToAdmin() error {
	if u.role == RoleAdmin {
		return statef("user is already an administrator")
	}
	if !u.isActive {
		return statef("inactive users cannot be promoted")
	}

	u.role = RoleAdmin
	at := now()
	u.record(UserPromotedToAdmin{
		EventMeta:  newMeta(at),
		UserID:     u.id,
		Email:      u.email.String(),
		Name:       u.name,
		PromotedAt: at,
	})
	return nil
}

// DemoteToUser requires an administrator. Activity is the caller's concern
// and no event is recorded.
func (u *User) DemoteToUser() error {
	if u.role != RoleAdmin {
		return statef("user is not an administrator")
	}
	u.role = RoleUser
	return nil
}

func (u *User) ID() string                 { return u.id }
func (u *User) Email() Email               { return u.email }
func (u *User) PasswordHash() PasswordHash { return u.passwordHash }
func (u *User) Name() string               { return u.name }
func (u *User) Role() Role                 { return u.role }
func (u *User) CreatedAt() time.Time       { return u.createdAt }
func (u *User) IsActive() bool             { return u.isActive }
func (u *User) IsAdmin() bool              { return u.role == RoleAdmin }
func (u *User) CanLogin() bool             { return u.isActive }

// Version is the persisted row version; zero means never saved.
func (u *User) Version() int64 { return u.version }

func (u *User) LastLoginAt() *time.Time {
	if u.lastLoginAt == nil {
		return nil
	}
	t := *u.lastLoginAt
	return &t
}

// Events returns a copy of the pending events, oldest first.
func (u *User) Events() []Event {
	out := make([]Event, len(u.events))
	copy(out, u.events)
	return out
}

// ClearEvents drops the pending events. Call it once they have been handed
// off together with a successful save.
func (u *User) ClearEvents() { u.events = nil }

// Persisted records the version assigned by a successful save.
func (u *User) Persisted(version int64) { u.version = version }

func (u *User) record(e Event) { u.events = append(u.events, e) }

func now() time.Time { return time.Now().UTC() }

// Snapshot is the flat persistence form of a User.
type Snapshot struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	IsActive     bool
	Version      int64
}

func (u *User) Snapshot() Snapshot {
	return Snapshot{
		ID:           u.id,
		Email:        u.email.String(),
		PasswordHash: string(u.passwordHash),
		Name:         u.name,
		Role:         u.role,
		CreatedAt:    u.createdAt,
		LastLoginAt:  u.LastLoginAt(),
		IsActive:     u.isActive,
		Version:      u.version,
	}
}

// Restore rebuilds a User from storage without recording events. Stored
// emails are trusted to have passed validation when they were written.
func Restore(s Snapshot) (*User, error) {
	if s.ID == "" {
		return nil, validationf("user id is required")
	}
	email := normalizeEmail(s.Email)
	if email == "" {
		return nil, validationf("email is required")
	}
	role, err := ParseRole(string(s.Role))
	if err != nil {
		return nil, err
	}
	name, err := validateName(s.Name)
	if err != nil {
		return nil, err
	}

	u := &User{
		id:           s.ID,
		email:        Email{value: email},
		passwordHash: PasswordHash(s.PasswordHash),
		name:         name,
		role:         role,
		createdAt:    s.CreatedAt.UTC(),
		isActive:     s.IsActive,
		version:      s.Version,
	}
	if s.LastLoginAt != nil {
		t := s.LastLoginAt.UTC()
		u.lastLoginAt = &t
	}
	return u, nil
}
