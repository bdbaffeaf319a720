package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrClubNotFound  = errors.New("club not found")
	ErrAlreadyMember = errors.New("already a member of this club")
	ErrNotMember     = errors.New("not a member of this club")
)

type Club struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ClubRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
}

func (r *ClubRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.ToLower(strings.TrimSpace(r.Category))
	r.ImageURL = strings.TrimSpace(r.ImageURL)
	if r.Category == "" {
		r.Category = "general"
	}
}

func (r *ClubRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if len(r.Name) > 100 {
		return errors.New("name must be at most 100 characters")
	}
	return validImageURL(r.ImageURL)
}

type ClubPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

func (p *ClubPatch) Validate() error {
	if p.Name != nil {
		*p.Name = strings.TrimSpace(*p.Name)
		if *p.Name == "" {
			return errors.New("name cannot be empty")
		}
	}
	if p.Category != nil {
		*p.Category = strings.ToLower(strings.TrimSpace(*p.Category))
	}
	if p.ImageURL != nil {
		return validImageURL(*p.ImageURL)
	}
	return nil
}

type Membership struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	ClubID   string    `json:"club_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
