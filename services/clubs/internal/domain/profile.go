package domain

import "errors"

var ErrProfileNotFound = errors.New("profile not found")

// Profile holds the display fields of a member.
type Profile struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	RollNumber string `json:"roll_number,omitempty"`
}
