package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/clubhive/clubhive/pkg/database"
	"github.com/clubhive/clubhive/services/attendance/internal/checkin"
	"github.com/jackc/pgx/v5"
)

// RosterRepository reads registrations and records check-ins.
type RosterRepository interface {
	checkin.Store
	FindProfile(ctx context.Context, userID string) (*Profile, error)
}

type Profile struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	RollNumber string `json:"roll_number,omitempty"`
}

type rosterRepository struct {
	db database.DB
}

func NewRosterRepository(db database.DB) RosterRepository {
	return &rosterRepository{db: db}
}

func (r *rosterRepository) FindEvent(ctx context.Context, eventID string) (*checkin.Event, error) {
	const q = `
		SELECT id::text, club_id::text, title, date, location, capacity, is_completed
		FROM events WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var e checkin.Event
	err := r.db.QueryRow(ctx, q, eventID).Scan(
		&e.ID, &e.ClubID, &e.Title, &e.Date, &e.Location, &e.Capacity, &e.IsCompleted,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *rosterRepository) ListRoster(ctx context.Context, eventID string) ([]checkin.RosterEntry, error) {
	const q = `
		SELECT r.id::text, r.event_id::text, r.user_id::text, r.registered_at, r.attended, r.checked_in_at,
		       COALESCE(p.full_name, ''), COALESCE(p.email, ''), COALESCE(p.roll_number, '')
		FROM event_registrations r
		LEFT JOIN profiles p ON p.id = r.user_id
		WHERE r.event_id = $1
		ORDER BY r.registered_at, r.id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []checkin.RosterEntry{}
	for rows.Next() {
		var e checkin.RosterEntry
		if err := rows.Scan(
			&e.RegistrationID, &e.EventID, &e.UserID, &e.RegisteredAt, &e.Attended, &e.CheckedInAt,
			&e.FullName, &e.Email, &e.RollNumber,
		); err != nil {
			return nil, fmt.Errorf("scan roster row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *rosterRepository) MarkAttended(ctx context.Context, registrationID string, at time.Time) (bool, error) {
	const q = `
		UPDATE event_registrations
		SET attended = true, checked_in_at = $2
		WHERE id = $1 AND attended = false`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, q, registrationID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *rosterRepository) FindProfile(ctx context.Context, userID string) (*Profile, error) {
	const q = `
		SELECT id::text, COALESCE(full_name, ''), COALESCE(email, ''), COALESCE(roll_number, '')
		FROM profiles WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p Profile
	err := r.db.QueryRow(ctx, q, userID).Scan(&p.ID, &p.FullName, &p.Email, &p.RollNumber)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
