package repository

import (
	"context"
	"time"

	"github.com/clubhive/clubhive/pkg/database"
	"github.com/clubhive/clubhive/services/clubs/internal/domain"
)

type AnnouncementRepository interface {
	// List returns newest first; an empty clubID lists every club.
	List(ctx context.Context, clubID string, limit, offset int) ([]domain.Announcement, error)
	Create(ctx context.Context, req *domain.AnnouncementRequest, createdBy string) (*domain.Announcement, error)
}

type announcementRepository struct {
	db database.DB
}

func NewAnnouncementRepository(db database.DB) AnnouncementRepository {
	return &announcementRepository{db: db}
}

const announcementCols = `id::text, club_id::text, title, content, COALESCE(created_by::text, ''), created_at`

func (r *announcementRepository) List(ctx context.Context, clubID string, limit, offset int) ([]domain.Announcement, error) {
	const q = `
		SELECT ` + announcementCols + `
		FROM announcements
		WHERE ($1 = '' OR club_id::text = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, q, clubID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Announcement
	for rows.Next() {
		var a domain.Announcement
		if err := rows.Scan(&a.ID, &a.ClubID, &a.Title, &a.Content, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *announcementRepository) Create(ctx context.Context, req *domain.AnnouncementRequest, createdBy string) (*domain.Announcement, error) {
	const q = `
		INSERT INTO announcements (club_id, title, content, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + announcementCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.Announcement
	err := r.db.QueryRow(ctx, q, req.ClubID, req.Title, req.Content, createdBy).
		Scan(&a.ID, &a.ClubID, &a.Title, &a.Content, &a.CreatedBy, &a.CreatedAt)
	if database.IsForeignKeyViolation(err) {
		return nil, domain.ErrClubNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
