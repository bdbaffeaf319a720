package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clubhive/clubhive/pkg/database"
	"github.com/clubhive/clubhive/services/clubs/internal/domain"
	"github.com/jackc/pgx/v5"
)

type EventRepository interface {
	List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error)
	FindByID(ctx context.Context, id string) (*domain.Event, error)
	Create(ctx context.Context, req *domain.EventRequest, createdBy string) (*domain.Event, error)
	Update(ctx context.Context, id string, patch *domain.EventPatch) (*domain.Event, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type eventRepository struct {
	db database.DB
}

func NewEventRepository(db database.DB) EventRepository {
	return &eventRepository{db: db}
}

const eventCols = `id::text, club_id::text, title, COALESCE(description, ''), date, location, capacity,
COALESCE(image_url, ''), is_completed, COALESCE(created_by::text, ''), created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.ClubID, &e.Title, &e.Description, &e.Date, &e.Location, &e.Capacity,
		&e.ImageURL, &e.IsCompleted, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepository) List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	var (
		where []string
		args  []any
	)
	if f.ClubID != "" {
		args = append(args, f.ClubID)
		where = append(where, fmt.Sprintf("club_id = $%d", len(args)))
	}
	if f.Upcoming {
		where = append(where, "NOT is_completed AND date >= now()")
	}

	q := `SELECT ` + eventCols + ` FROM events`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	q += fmt.Sprintf(` ORDER BY date ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *eventRepository) FindByID(ctx context.Context, id string) (*domain.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	e, err := scanEvent(r.db.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *eventRepository) Create(ctx context.Context, req *domain.EventRequest, createdBy string) (*domain.Event, error) {
	const q = `
		INSERT INTO events (club_id, title, description, date, location, capacity, image_url, is_completed, created_by)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''), false, $8)
		RETURNING ` + eventCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	e, err := scanEvent(r.db.QueryRow(ctx, q, req.ClubID, req.Title, req.Description, req.Date,
		req.Location, req.Capacity, req.ImageURL, createdBy))
	if database.IsForeignKeyViolation(err) {
		return nil, domain.ErrClubNotFound
	}
	return e, err
}

func (r *eventRepository) Update(ctx context.Context, id string, patch *domain.EventPatch) (*domain.Event, error) {
	const q = `
		UPDATE events
		SET
			title        = COALESCE($2, title),
			description  = COALESCE($3, description),
			date         = COALESCE($4, date),
			location     = COALESCE($5, location),
			capacity     = COALESCE($6, capacity),
			image_url    = COALESCE($7, image_url),
			is_completed = COALESCE($8, is_completed),
			updated_at   = now()
		WHERE id = $1
		RETURNING ` + eventCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	e, err := scanEvent(r.db.QueryRow(ctx, q, id, patch.Title, patch.Description, patch.Date,
		patch.Location, patch.Capacity, patch.ImageURL, patch.IsCompleted))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *eventRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
