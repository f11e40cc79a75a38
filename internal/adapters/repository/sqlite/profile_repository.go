package sqlite

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
	profile := &domain.Profile{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, company_name, created_at, updated_at FROM profiles WHERE id = ?`, id,
	).Scan(&profile.ID, &profile.Email, &profile.FullName, &profile.CompanyName, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, unavailable(fmt.Errorf("get profile: %w", err))
	}
	return profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (id, email, full_name, company_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET email = excluded.email,
		    full_name = excluded.full_name,
		    company_name = excluded.company_name,
		    updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		profile.ID, profile.Email, profile.FullName, profile.CompanyName, profile.CreatedAt.UTC(), profile.UpdatedAt.UTC(),
	)
	if err != nil {
		return unavailable(fmt.Errorf("save profile: %w", err))
	}
	return nil
}
