package repository

import (
	"context"
	"time"

	"github.com/clubhive/clubhive/pkg/auth"
	"github.com/clubhive/clubhive/pkg/database"
	"github.com/clubhive/clubhive/services/auth/internal/domain"
	"github.com/jackc/pgx/v5"
)

type ProfileRepository interface {
	// Ensure returns the profile of a user, creating an empty one on first sign-in.
	Ensure(ctx context.Context, userID, email string) (*domain.Profile, error)
	FindByID(ctx context.Context, userID string) (*domain.Profile, error)
	Update(ctx context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.Profile, error)
	// Role reads user_roles; a user without a row is a student.
	Role(ctx context.Context, userID string) (auth.Role, error)
}

type profileRepository struct {
	db database.DB
}

func NewProfileRepository(db database.DB) ProfileRepository {
	return &profileRepository{db: db}
}

const profileCols = `id::text, COALESCE(email, ''), COALESCE(full_name, ''), COALESCE(avatar_url, ''), COALESCE(roll_number, ''), created_at, updated_at`

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.AvatarURL, &p.RollNumber, &p.CreatedAt, &p.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) Ensure(ctx context.Context, userID, email string) (*domain.Profile, error) {
	const q = `
		INSERT INTO profiles (id, email)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET email = COALESCE(profiles.email, EXCLUDED.email)
		RETURNING ` + profileCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanProfile(r.db.QueryRow(ctx, q, userID, email))
}

func (r *profileRepository) FindByID(ctx context.Context, userID string) (*domain.Profile, error) {
	const q = `SELECT ` + profileCols + ` FROM profiles WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanProfile(r.db.QueryRow(ctx, q, userID))
}

func (r *profileRepository) Update(ctx context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.Profile, error) {
	const q = `
		UPDATE profiles
		SET
			full_name = COALESCE($2, full_name),
			roll_number = COALESCE($3, roll_number),
			avatar_url = COALESCE($4, avatar_url),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + profileCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return scanProfile(r.db.QueryRow(ctx, q, userID, req.FullName, req.RollNumber, req.AvatarURL))
}

func (r *profileRepository) Role(ctx context.Context, userID string) (auth.Role, error) {
	const q = `
		SELECT role FROM user_roles
		WHERE user_id = $1
		ORDER BY CASE WHEN role = 'admin' THEN 0 ELSE 1 END
		LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var role string
	err := r.db.QueryRow(ctx, q, userID).Scan(&role)
	if err == pgx.ErrNoRows {
		return auth.RoleStudent, nil
	}
	if err != nil {
		return "", err
	}
	return auth.ParseRole(role), nil
}
