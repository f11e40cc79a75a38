package supabase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

type profileRepository struct {
	client *Client
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	var rows []domain.Profile
	if err := r.client.get(ctx, "/profiles?select=*&id=eq."+id.String(), &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrProfileNotFound
	}
	return &rows[0], nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	payload := map[string]any{
		"id":           profile.ID,
		"email":        profile.Email,
		"full_name":    profile.FullName,
		"company_name": profile.CompanyName,
		"created_at":   profile.CreatedAt,
		"updated_at":   profile.UpdatedAt,
	}
	headers := map[string]string{"Prefer": "resolution=merge-duplicates,return=representation"}
	if _, err := r.client.makeRequest(ctx, http.MethodPost, "/profiles", payload, headers); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
