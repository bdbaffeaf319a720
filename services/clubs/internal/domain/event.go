package domain

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrEventPast     = errors.New("event has already taken place")
)

type Event struct {
	ID          string    `json:"id"`
	ClubID      string    `json:"club_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Capacity    *int      `json:"capacity,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsCompleted bool      `json:"is_completed"`
	Status      string    `json:"status,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsPast reports whether the event no longer accepts registrations.
func (e *Event) IsPast(now time.Time) bool {
	return e.IsCompleted || e.Date.Before(now)
}

// StatusAt is the label shown on event cards.
func (e *Event) StatusAt(now time.Time) string {
	switch {
	case e.IsCompleted:
		return "completed"
	case e.Date.Before(now):
		return "past"
	default:
		return "upcoming"
	}
}

type EventRequest struct {
	ClubID      string    `json:"club_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Capacity    *int      `json:"capacity"`
	ImageURL    string    `json:"image_url"`
}

func (r *EventRequest) Normalize() {
	r.ClubID = strings.TrimSpace(r.ClubID)
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
	r.ImageURL = strings.TrimSpace(r.ImageURL)
}

func (r *EventRequest) Validate() error {
	switch {
	case r.ClubID == "":
		return errors.New("club_id is required")
	case r.Title == "":
		return errors.New("title is required")
	case r.Date.IsZero():
		return errors.New("date is required")
	case r.Location == "":
		return errors.New("location is required")
	case r.Capacity != nil && *r.Capacity <= 0:
		return errors.New("capacity must be positive")
	}
	return validImageURL(r.ImageURL)
}

type EventPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Capacity    *int       `json:"capacity,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	IsCompleted *bool      `json:"is_completed,omitempty"`
}

func (p *EventPatch) Validate() error {
	if p.Title != nil {
		*p.Title = strings.TrimSpace(*p.Title)
		if *p.Title == "" {
			return errors.New("title cannot be empty")
		}
	}
	if p.Location != nil {
		*p.Location = strings.TrimSpace(*p.Location)
		if *p.Location == "" {
			return errors.New("location cannot be empty")
		}
	}
	if p.Capacity != nil && *p.Capacity <= 0 {
		return errors.New("capacity must be positive")
	}
	if p.ImageURL != nil {
		return validImageURL(*p.ImageURL)
	}
	return nil
}

type EventFilter struct {
	ClubID   string
	Upcoming bool
	Limit    int
	Offset   int
}

func validImageURL(s string) error {
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("image_url must be an http(s) URL")
	}
	return nil
}
