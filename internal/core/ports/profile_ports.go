package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
}

type UpdateProfileInput struct {
	UserID      uuid.UUID
	Email       string
	FullName    *string
	CompanyName *string
}

type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, input UpdateProfileInput) (*domain.Profile, error)
}
