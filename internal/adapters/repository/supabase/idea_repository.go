package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

type ideaRepository struct {
	client *Client
}

func (r *ideaRepository) Save(ctx context.Context, idea *domain.Idea) error {
	payload := map[string]any{
		"id":              idea.ID,
		"title":           idea.Title,
		"description":     idea.Description,
		"category":        idea.Category,
		"usage_frequency": idea.UsageFrequency,
		"status":          idea.Status,
		"notes":           idea.Notes,
		"created_by":      idea.CreatedBy,
		"created_at":      idea.CreatedAt,
		"updated_at":      idea.UpdatedAt,
	}
	if _, err := r.client.makeRequest(ctx, http.MethodPost, "/ideas", payload, nil); err != nil {
		return fmt.Errorf("failed to save idea: %w", err)
	}
	return nil
}

func (r *ideaRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Idea, error) {
	var rows []domain.Idea
	if err := r.client.get(ctx, "/ideas_with_votes?select=*&id=eq."+id.String(), &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch idea: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrIdeaNotFound
	}
	return &rows[0], nil
}

func (r *ideaRepository) Update(ctx context.Context, idea *domain.Idea) error {
	payload := map[string]any{
		"title":           idea.Title,
		"description":     idea.Description,
		"category":        idea.Category,
		"usage_frequency": idea.UsageFrequency,
		"status":          idea.Status,
		"notes":           idea.Notes,
		"updated_at":      idea.UpdatedAt,
	}
	data, err := r.client.makeRequest(ctx, http.MethodPatch, "/ideas?id=eq."+idea.ID.String(), payload, nil)
	if err != nil {
		return fmt.Errorf("failed to update idea: %w", err)
	}
	if isEmptyArray(data) {
		return domain.ErrIdeaNotFound
	}
	return nil
}

func (r *ideaRepository) ListWithVotes(ctx context.Context) ([]*domain.IdeaWithVotes, error) {
	var rows []*domain.IdeaWithVotes
	if err := r.client.get(ctx, "/ideas_with_votes?select=*&order=created_at.desc", &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch ideas: %w", err)
	}
	for _, row := range rows {
		if row.Voters == nil {
			row.Voters = []domain.Voter{}
		}
	}
	return rows, nil
}

func (r *ideaRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var rows []struct {
		ID uuid.UUID `json:"id"`
	}
	if err := r.client.get(ctx, "/ideas?select=id", &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch idea ids: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// AdjustVoteCount only checks the idea exists; the view counts votes itself.
func (r *ideaRepository) AdjustVoteCount(ctx context.Context, id uuid.UUID, _ int) error {
	return r.exists(ctx, id)
}

func (r *ideaRepository) ReconcileVoteCount(ctx context.Context, id uuid.UUID) error {
	return r.exists(ctx, id)
}

func (r *ideaRepository) exists(ctx context.Context, id uuid.UUID) error {
	var rows []struct {
		ID uuid.UUID `json:"id"`
	}
	query := url.Values{"select": {"id"}, "id": {"eq." + id.String()}}
	if err := r.client.get(ctx, "/ideas?"+query.Encode(), &rows); err != nil {
		return fmt.Errorf("failed to fetch idea: %w", err)
	}
	if len(rows) == 0 {
		return domain.ErrIdeaNotFound
	}
	return nil
}

func isEmptyArray(data []byte) bool {
	var rows []map[string]any
	return json.Unmarshal(data, &rows) == nil && len(rows) == 0
}
