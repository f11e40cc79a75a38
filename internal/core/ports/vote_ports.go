package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

// VoteRepository stores ledger memberships. Every lookup is scoped to a quarter.
type VoteRepository interface {
	// Save fails with domain.ErrAlreadyVoted when (idea, user, quarter) already exists.
	Save(ctx context.Context, vote *domain.Vote) error
	// Delete fails with domain.ErrNotVoted when no matching vote exists.
	Delete(ctx context.Context, ideaID, userID uuid.UUID, quarter string) error
	HasVoted(ctx context.Context, ideaID, userID uuid.UUID, quarter string) (bool, error)
	CountByUser(ctx context.Context, userID uuid.UUID, quarter string) (int, error)
	ListIdeaIDsByUser(ctx context.Context, userID uuid.UUID, quarter string) ([]uuid.UUID, error)
}

type VoteService interface {
	Vote(ctx context.Context, userID, ideaID uuid.UUID) (*domain.QuarterInfo, error)
	Unvote(ctx context.Context, userID, ideaID uuid.UUID) (*domain.QuarterInfo, error)
	HasVoted(ctx context.Context, userID, ideaID uuid.UUID) (bool, error)
	VotedIdeas(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
