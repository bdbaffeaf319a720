package domain

import (
	"errors"
	"strings"
	"time"
)

type Announcement struct {
	ID        string    `json:"id"`
	ClubID    string    `json:"club_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AnnouncementRequest struct {
	ClubID  string `json:"club_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (r *AnnouncementRequest) Normalize() {
	r.ClubID = strings.TrimSpace(r.ClubID)
	r.Title = strings.TrimSpace(r.Title)
	r.Content = strings.TrimSpace(r.Content)
}

func (r *AnnouncementRequest) Validate() error {
	switch {
	case r.ClubID == "":
		return errors.New("club_id is required")
	case r.Title == "":
		return errors.New("title is required")
	case r.Content == "":
		return errors.New("content is required")
	}
	return nil
}
