package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
)

type profileService struct {
	store   ports.Store
	timeout time.Duration
	clock   func() time.Time
}

func NewProfileService(store ports.Store, timeout time.Duration, clock func() time.Time) ports.ProfileService {
	if clock == nil {
		clock = time.Now
	}
	return &profileService{store: store, timeout: timeout, clock: clock}
}

func (s *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrNotAuthenticated
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	profile, err := s.store.Profiles().GetByID(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	return profile, nil
}

// UpdateProfile creates the profile on first use. Nil fields keep their
// stored value and blank ones clear it.
func (s *profileService) UpdateProfile(ctx context.Context, input ports.UpdateProfileInput) (*domain.Profile, error) {
	if input.UserID == uuid.Nil {
		return nil, domain.ErrNotAuthenticated
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	now := s.clock().UTC()
	profile, err := s.store.Profiles().GetByID(ctx, input.UserID)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		profile = &domain.Profile{ID: input.UserID, CreatedAt: now}
	case err != nil:
		return nil, storeError(err)
	}

	if email := strings.TrimSpace(input.Email); email != "" {
		profile.Email = email
	}
	if input.FullName != nil {
		profile.FullName = optional(*input.FullName)
	}
	if input.CompanyName != nil {
		profile.CompanyName = optional(*input.CompanyName)
	}
	profile.UpdatedAt = now

	if err := s.store.Profiles().Upsert(ctx, profile); err != nil {
		return nil, storeError(fmt.Errorf("failed to save profile: %w", err))
	}
	return profile, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
