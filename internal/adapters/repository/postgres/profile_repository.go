package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

type profileRepository struct {
	db dbtx
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query := `SELECT id, email, full_name, company_name, created_at, updated_at FROM profiles WHERE id = $1`
	profile := &domain.Profile{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&profile.ID, &profile.Email, &profile.FullName, &profile.CompanyName, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, unavailable(fmt.Errorf("failed to fetch profile: %w", err))
	}
	return profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (id, email, full_name, company_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    full_name = EXCLUDED.full_name,
		    company_name = EXCLUDED.company_name,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		profile.ID, profile.Email, profile.FullName, profile.CompanyName, profile.CreatedAt, profile.UpdatedAt,
	).Scan(&profile.CreatedAt)
	if err != nil {
		return unavailable(fmt.Errorf("failed to save profile: %w", err))
	}
	return nil
}
