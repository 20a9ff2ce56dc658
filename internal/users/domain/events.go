package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is an immutable fact about a User. Events are buffered on the
// aggregate and drained by whoever persists it.
type Event interface {
	EventID() string
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// Event type names, used as routing keys downstream.
const (
	EventUserCreated         = "user.created"
	EventAdminUserCreated    = "user.admin_created"
	EventUserAuthenticated   = "user.authenticated"
	EventPasswordChanged     = "user.password_changed"
	EventUserDeactivated     = "user.deactivated"
	EventUserReactivated     = "user.reactivated"
	EventUserPromotedToAdmin = "user.promoted"
)

// EventMeta is shared by every event.
type EventMeta struct {
	ID string    `json:"eventId"`
	At time.Time `json:"occurredAt"`
}

func newMeta(at time.Time) EventMeta {
	return EventMeta{ID: uuid.NewString(), At: at}
}

func (m EventMeta) EventID() string       { return m.ID }
func (m EventMeta) OccurredAt() time.Time { return m.At }

type UserCreated struct {
	EventMeta
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e UserCreated) EventType() string   { return EventUserCreated }
func (e UserCreated) AggregateID() string { return e.UserID }

type AdminUserCreated struct {
	EventMeta
	NewAdminID       string    `json:"newAdminId"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	CreatedByAdminID string    `json:"createdByAdminId"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (e AdminUserCreated) EventType() string   { return EventAdminUserCreated }
func (e AdminUserCreated) AggregateID() string { return e.NewAdminID }

type UserAuthenticated struct {
	EventMeta
	UserID  string    `json:"userId"`
	Email   string    `json:"email"`
	LoginAt time.Time `json:"loginAt"`
}

func (e UserAuthenticated) EventType() string   { return EventUserAuthenticated }
func (e UserAuthenticated) AggregateID() string { return e.UserID }

type PasswordChanged struct {
	EventMeta
	UserID    string    `json:"userId"`
	ChangedAt time.Time `json:"changedAt"`
}

func (e PasswordChanged) EventType() string   { return EventPasswordChanged }
func (e PasswordChanged) AggregateID() string { return e.UserID }

type UserDeactivated struct {
	EventMeta
	UserID        string    `json:"userId"`
	Email         string    `json:"email"`
	DeactivatedAt time.Time `json:"deactivatedAt"`
}

func (e UserDeactivated) EventType() string   { return EventUserDeactivated }
func (e UserDeactivated) AggregateID() string { return e.UserID }

type UserReactivated struct {
	EventMeta
	UserID        string    `json:"userId"`
	Email         string    `json:"email"`
	ReactivatedAt time.Time `json:"reactivatedAt"`
}

func (e UserReactivated) EventType() string   { return EventUserReactivated }
func (e UserReactivated) AggregateID() string { return e.UserID }

type UserPromotedToAdmin struct {
	EventMeta
	UserID     string    `json:"userId"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	PromotedAt time.Time `json:"promotedAt"`
}

func (e UserPromotedToAdmin) EventType() string   { return EventUserPromotedToAdmin }
func (e UserPromotedToAdmin) AggregateID() string { return e.UserID }
