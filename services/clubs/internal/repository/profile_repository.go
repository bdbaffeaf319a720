package repository

import (
	"context"
	"time"

	"github.com/clubhive/clubhive/pkg/database"
	"github.com/clubhive/clubhive/services/clubs/internal/domain"
	"github.com/jackc/pgx/v5"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Profile, error)
}

type profileRepository struct {
	db database.DB
}

func NewProfileRepository(db database.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByID(ctx context.Context, id string) (*domain.Profile, error) {
	const q = `
		SELECT id::text, COALESCE(email, ''), COALESCE(full_name, ''), COALESCE(avatar_url, ''), COALESCE(roll_number, '')
		FROM profiles WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.Profile
	err := r.db.QueryRow(ctx, q, id).Scan(&p.ID, &p.Email, &p.FullName, &p.AvatarURL, &p.RollNumber)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
