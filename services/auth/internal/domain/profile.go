package domain

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/clubhive/clubhive/pkg/auth"
	"github.com/clubhive/clubhive/pkg/session"
)

type Profile struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	RollNumber string    `json:"roll_number,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (p *Profile) SessionProfile() session.Profile {
	return session.Profile{FullName: p.FullName, Email: p.Email, RollNumber: p.RollNumber, AvatarURL: p.AvatarURL}
}

type SignInRequest struct {
	// AccessToken is the identity provider's token for the signed-in user.
	AccessToken string `json:"access_token"`
}

type SignInResponse struct {
	AccessToken string        `json:"access_token"`
	ExpiresIn   int64         `json:"expires_in"`
	Session     *SessionState `json:"session"`
}

// SessionState is what the client renders from: who is signed in and where they can go.
type SessionState struct {
	session.View
	Navigation []Link `json:"navigation"`
}

func NewSessionState(s *session.Session) *SessionState {
	return &SessionState{View: s.View(), Navigation: NavigationFor(s.Role())}
}

type UpdateProfileRequest struct {
	FullName   *string `json:"full_name,omitempty"`
	RollNumber *string `json:"roll_number,omitempty"`
	AvatarURL  *string `json:"avatar_url,omitempty"`
}

func (r *UpdateProfileRequest) Normalize() {
	for _, f := range []*string{r.FullName, r.RollNumber, r.AvatarURL} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

func (r *UpdateProfileRequest) Validate() error {
	if r.FullName == nil && r.RollNumber == nil && r.AvatarURL == nil {
		return errors.New("nothing to update")
	}
	if r.FullName != nil && (*r.FullName == "" || len(*r.FullName) > 120) {
		return errors.New("full_name must be 1 to 120 characters")
	}
	if r.RollNumber != nil && len(*r.RollNumber) > 40 {
		return errors.New("roll_number must be at most 40 characters")
	}
	if r.AvatarURL != nil && *r.AvatarURL != "" {
		u, err := url.Parse(*r.AvatarURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.New("avatar_url must be an http(s) URL")
		}
	}
	return nil
}

type Link struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// NavigationFor returns the primary navigation of a role, in display order.
func NavigationFor(role auth.Role) []Link {
	if role == auth.RoleAdmin {
		return []Link{
			{Path: "/dashboard", Label: "Dashboard"},
			{Path: "/admin/clubs", Label: "Manage Clubs"},
			{Path: "/admin/events", Label: "Manage Events"},
			{Path: "/admin/attendance", Label: "Attendance"},
			{Path: "/admin/reports", Label: "Reports"},
		}
	}
	return []Link{
		{Path: "/dashboard", Label: "Dashboard"},
		{Path: "/my-clubs", Label: "My Clubs"},
		{Path: "/events", Label: "Events"},
	}
}
