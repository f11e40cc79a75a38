package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

type IdeaRepository interface {
	Save(ctx context.Context, idea *domain.Idea) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Idea, error)
	Update(ctx context.Context, idea *domain.Idea) error
	// ListWithVotes returns every idea with its voters, newest first.
	ListWithVotes(ctx context.Context) ([]*domain.IdeaWithVotes, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	// AdjustVoteCount adds delta to the stored count, never going below zero.
	AdjustVoteCount(ctx context.Context, id uuid.UUID, delta int) error
	// ReconcileVoteCount resets the stored count to the number of recorded votes.
	ReconcileVoteCount(ctx context.Context, id uuid.UUID) error
}

type SubmitIdeaInput struct {
	UserID         uuid.UUID
	Title          string
	Description    string
	Category       string
	UsageFrequency domain.UsageFrequency
}

const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortVotes  = "votes"
)

type ListIdeasInput struct {
	ViewerID uuid.UUID
	Status   string
	Category string
	Query    string
	Sort     string
	Page     int
	PageSize int
}

type IdeaView struct {
	*domain.IdeaWithVotes
	HasVoted bool `json:"has_voted"`
}

type ListIdeasResult struct {
	Ideas    []IdeaView `json:"ideas"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

type UpdateIdeaInput struct {
	AdminID uuid.UUID
	IdeaID  uuid.UUID
	Status  *domain.IdeaStatus
	Notes   *string
}

type IdeaService interface {
	Submit(ctx context.Context, input SubmitIdeaInput) (*domain.Idea, error)
	GetIdea(ctx context.Context, id uuid.UUID, viewerID uuid.UUID) (*IdeaView, error)
	ListIdeas(ctx context.Context, input ListIdeasInput) (*ListIdeasResult, error)
	Stats(ctx context.Context) (*domain.IdeaStats, error)
	UpdateIdea(ctx context.Context, input UpdateIdeaInput) (*domain.Idea, error)
	HandleChange(ctx context.Context, event domain.ChangeEvent)
}
