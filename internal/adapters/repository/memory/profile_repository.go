package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

type profileRepository struct {
	view   accessor
	update accessor
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	var profile domain.Profile
	err := r.view(ctx, func(st *state) error {
		found, ok := st.profiles[id]
		if !ok {
			return domain.ErrProfileNotFound
		}
		profile = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	return r.update(ctx, func(st *state) error {
		if existing, ok := st.profiles[profile.ID]; ok && !existing.CreatedAt.IsZero() {
			profile.CreatedAt = existing.CreatedAt
		}
		st.profiles[profile.ID] = *profile
		return nil
	})
}
