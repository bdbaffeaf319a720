package domain

import (
	"errors"
	"time"

	"github.com/clubhive/clubhive/pkg/pass"
)

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrAlreadyRegistered    = errors.New("already registered for this event")
	ErrCapacityReached      = errors.New("event is full")
)

type Registration struct {
	ID           string     `json:"id"`
	EventID      string     `json:"event_id"`
	UserID       string     `json:"user_id"`
	RegisteredAt time.Time  `json:"registered_at"`
	Attended     bool       `json:"attended"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
	PassToken    string     `json:"pass_token"`
}

// WithPass fills in the pass token from the registration's identifiers.
func (r *Registration) WithPass() *Registration {
	r.PassToken = pass.Token(r.EventID, r.UserID, r.ID)
	return r
}

// MyRegistration is a registration listed with its event.
type MyRegistration struct {
	Registration
	Event Event `json:"event"`
}

type RegistrationCount struct {
	EventID    string `json:"event_id"`
	Registered int    `json:"registered"`
	Attended   int    `json:"attended"`
	Capacity   *int   `json:"capacity,omitempty"`
	// SpotsLeft is absent for events without a capacity.
	SpotsLeft *int `json:"spots_left,omitempty"`
}
