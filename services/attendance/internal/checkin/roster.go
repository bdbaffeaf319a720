package checkin

import (
	"time"
)

type Event struct {
	ID          string    `json:"id"`
	ClubID      string    `json:"club_id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Capacity    *int      `json:"capacity,omitempty"`
	IsCompleted bool      `json:"is_completed"`
}

// RosterEntry is one registration of the event with the registrant's display fields.
type RosterEntry struct {
	RegistrationID string     `json:"id"`
	EventID        string     `json:"event_id"`
	UserID         string     `json:"user_id"`
	RegisteredAt   time.Time  `json:"registered_at"`
	Attended       bool       `json:"attended"`
	CheckedInAt    *time.Time `json:"checked_in_at,omitempty"`
	FullName       string     `json:"full_name"`
	Email          string     `json:"email"`
	RollNumber     string     `json:"roll_number,omitempty"`
}

// DisplayName falls back to the email when the profile has no name.
func (e RosterEntry) DisplayName() string {
	if e.FullName != "" {
		return e.FullName
	}
	if e.Email != "" {
		return e.Email
	}
	return "Attendee"
}

// Roster is an immutable snapshot of an event's registrations, ordered by registration time.
type Roster struct {
	EventID  string        `json:"event_id"`
	Entries  []RosterEntry `json:"registrations"`
	LoadedAt time.Time     `json:"loaded_at"`
}

func (r Roster) Find(registrationID string) (RosterEntry, bool) {
	for _, e := range r.Entries {
		if e.RegistrationID == registrationID {
			return e, true
		}
	}
	return RosterEntry{}, false
}

// withAttended returns a copy of the roster with the registration marked as attended at t.
func (r Roster) withAttended(registrationID string, t time.Time) Roster {
	entries := make([]RosterEntry, len(r.Entries))
	copy(entries, r.Entries)
	for i := range entries {
		if entries[i].RegistrationID == registrationID {
			entries[i].Attended = true
			at := t
			entries[i].CheckedInAt = &at
		}
	}
	return Roster{EventID: r.EventID, Entries: entries, LoadedAt: r.LoadedAt}
}

type Summary struct {
	EventID    string  `json:"event_id"`
	Registered int     `json:"registered"`
	Attended   int     `json:"attended"`
	Rate       float64 `json:"attendance_rate"`
}

func (r Roster) Summary() Summary {
	s := Summary{EventID: r.EventID, Registered: len(r.Entries)}
	for _, e := range r.Entries {
		if e.Attended {
			s.Attended++
		}
	}
	if s.Registered > 0 {
		s.Rate = float64(s.Attended) / float64(s.Registered)
	}
	return s
}
