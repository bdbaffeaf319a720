package repository

import (
	"context"
	"time"

	"github.com/clubhive/clubhive/pkg/database"
	"github.com/clubhive/clubhive/services/clubs/internal/domain"
	"github.com/jackc/pgx/v5"
)

type ClubRepository interface {
	List(ctx context.Context, limit, offset int) ([]domain.Club, error)
	FindByID(ctx context.Context, id string) (*domain.Club, error)
	Create(ctx context.Context, req *domain.ClubRequest, createdBy string) (*domain.Club, error)
	Update(ctx context.Context, id string, patch *domain.ClubPatch) (*domain.Club, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListByMember(ctx context.Context, userID string) ([]domain.Club, error)
	// Join reports false when the user already belongs to the club.
	Join(ctx context.Context, clubID, userID string) (bool, error)
	Leave(ctx context.Context, clubID, userID string) (bool, error)
}

type clubRepository struct {
	db database.DB
}

func NewClubRepository(db database.DB) ClubRepository {
	return &clubRepository{db: db}
}

const clubCols = `c.id::text, c.name, COALESCE(c.description, ''), c.category, COALESCE(c.image_url, ''),
COALESCE(c.created_by::text, ''),
(SELECT count(*) FROM club_memberships m WHERE m.club_id = c.id),
c.created_at, c.updated_at`

func scanClub(row pgx.Row) (*domain.Club, error) {
	var c domain.Club
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Category, &c.ImageURL, &c.CreatedBy,
		&c.MemberCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectClubs(rows pgx.Rows) ([]domain.Club, error) {
	defer rows.Close()
	var clubs []domain.Club
	for rows.Next() {
		c, err := scanClub(rows)
		if err != nil {
			return nil, err
		}
		clubs = append(clubs, *c)
	}
	return clubs, rows.Err()
}

func (r *clubRepository) List(ctx context.Context, limit, offset int) ([]domain.Club, error) {
	const q = `SELECT ` + clubCols + ` FROM clubs c ORDER BY c.name LIMIT $1 OFFSET $2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectClubs(rows)
}

func (r *clubRepository) FindByID(ctx context.Context, id string) (*domain.Club, error) {
	const q = `SELECT ` + clubCols + ` FROM clubs c WHERE c.id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	c, err := scanClub(r.db.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *clubRepository) Create(ctx context.Context, req *domain.ClubRequest, createdBy string) (*domain.Club, error) {
	const q = `
		WITH c AS (
			INSERT INTO clubs (name, description, category, image_url, created_by)
			VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5)
			RETURNING *
		)
		SELECT ` + clubCols + ` FROM c`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanClub(r.db.QueryRow(ctx, q, req.Name, req.Description, req.Category, req.ImageURL, createdBy))
}

func (r *clubRepository) Update(ctx context.Context, id string, patch *domain.ClubPatch) (*domain.Club, error) {
	const q = `
		WITH c AS (
			UPDATE clubs
			SET
				name        = COALESCE($2, name),
				description = COALESCE($3, description),
				category    = COALESCE($4, category),
				image_url   = COALESCE($5, image_url),
				updated_at  = now()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + clubCols + ` FROM c`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	c, err := scanClub(r.db.QueryRow(ctx, q, id, patch.Name, patch.Description, patch.Category, patch.ImageURL))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *clubRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.db.Exec(ctx, `DELETE FROM clubs WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *clubRepository) ListByMember(ctx context.Context, userID string) ([]domain.Club, error) {
	const q = `
		SELECT ` + clubCols + `
		FROM clubs c
		JOIN club_memberships mm ON mm.club_id = c.id
		WHERE mm.user_id = $1
		ORDER BY c.name`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return collectClubs(rows)
}

func (r *clubRepository) Join(ctx context.Context, clubID, userID string) (bool, error) {
	const q = `
		INSERT INTO club_memberships (club_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, club_id) DO NOTHING`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.db.Exec(ctx, q, clubID, userID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return false, domain.ErrClubNotFound
		}
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *clubRepository) Leave(ctx context.Context, clubID, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	tag, err := r.db.Exec(ctx, `DELETE FROM club_memberships WHERE club_id = $1 AND user_id = $2`, clubID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
