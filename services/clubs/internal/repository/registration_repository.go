package repository

import (
	"context"
	"time"

	"github.com/clubhive/clubhive/pkg/database"
	"github.com/clubhive/clubhive/services/clubs/internal/domain"
	"github.com/jackc/pgx/v5"
)

type RegistrationRepository interface {
	// Register enforces the registration rules under a row lock on the
	// event, so concurrent registrations cannot overfill it.
	Register(ctx context.Context, eventID, userID string, now time.Time) (*domain.Registration, error)
	ListByUser(ctx context.Context, userID string) ([]domain.MyRegistration, error)
	FindForUser(ctx context.Context, id, userID string) (*domain.Registration, error)
	Count(ctx context.Context, eventID string) (registered, attended int, err error)
}

type registrationRepository struct {
	db database.DB
}

func NewRegistrationRepository(db database.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

const registrationCols = `id::text, event_id::text, user_id::text, registered_at, attended, checked_in_at`

func (r *registrationRepository) Register(ctx context.Context, eventID, userID string, now time.Time) (*domain.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var reg domain.Registration
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var (
			ev      domain.Event
			already bool
			taken   int
		)
		err := tx.QueryRow(ctx, `SELECT date, is_completed, capacity FROM events WHERE id = $1 FOR UPDATE`, eventID).
			Scan(&ev.Date, &ev.IsCompleted, &ev.Capacity)
		if err == pgx.ErrNoRows {
			return domain.ErrEventNotFound
		}
		if err != nil {
			return err
		}
		if ev.IsPast(now) {
			return domain.ErrEventPast
		}

		err = tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM event_registrations WHERE event_id = $1 AND user_id = $2),
			       (SELECT count(*) FROM event_registrations WHERE event_id = $1)`,
			eventID, userID).Scan(&already, &taken)
		if err != nil {
			return err
		}
		if already {
			return domain.ErrAlreadyRegistered
		}
		if ev.Capacity != nil && taken >= *ev.Capacity {
			return domain.ErrCapacityReached
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO event_registrations (event_id, user_id, registered_at, attended)
			VALUES ($1, $2, $3, false)
			RETURNING `+registrationCols, eventID, userID, now).
			Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.RegisteredAt, &reg.Attended, &reg.CheckedInAt)
		if database.IsUniqueViolation(err) {
			return domain.ErrAlreadyRegistered
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return reg.WithPass(), nil
}

func (r *registrationRepository) ListByUser(ctx context.Context, userID string) ([]domain.MyRegistration, error) {
	const q = `
		SELECT r.id::text, r.event_id::text, r.user_id::text, r.registered_at, r.attended, r.checked_in_at,
		       e.id::text, e.club_id::text, e.title, COALESCE(e.description, ''), e.date, e.location, e.capacity,
		       COALESCE(e.image_url, ''), e.is_completed, COALESCE(e.created_by::text, ''), e.created_at, e.updated_at
		FROM event_registrations r
		JOIN events e ON e.id = r.event_id
		WHERE r.user_id = $1
		ORDER BY e.date ASC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MyRegistration
	for rows.Next() {
		var m domain.MyRegistration
		e := &m.Event
		if err := rows.Scan(
			&m.ID, &m.EventID, &m.UserID, &m.RegisteredAt, &m.Attended, &m.CheckedInAt,
			&e.ID, &e.ClubID, &e.Title, &e.Description, &e.Date, &e.Location, &e.Capacity,
			&e.ImageURL, &e.IsCompleted, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		m.WithPass()
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *registrationRepository) FindForUser(ctx context.Context, id, userID string) (*domain.Registration, error) {
	const q = `SELECT ` + registrationCols + ` FROM event_registrations WHERE id = $1 AND user_id = $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var reg domain.Registration
	err := r.db.QueryRow(ctx, q, id, userID).
		Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.RegisteredAt, &reg.Attended, &reg.CheckedInAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return reg.WithPass(), nil
}

func (r *registrationRepository) Count(ctx context.Context, eventID string) (int, int, error) {
	const q = `
		SELECT count(*), count(*) FILTER (WHERE attended)
		FROM event_registrations WHERE event_id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var registered, attended int
	if err := r.db.QueryRow(ctx, q, eventID).Scan(&registered, &attended); err != nil {
		return 0, 0, err
	}
	return registered, attended, nil
}
