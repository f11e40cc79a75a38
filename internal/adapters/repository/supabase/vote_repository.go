package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

type voteRepository struct {
	client *Client
}

func (r *voteRepository) Save(ctx context.Context, vote *domain.Vote) error {
	payload := map[string]any{
		"id":         vote.ID,
		"idea_id":    vote.IdeaID,
		"user_id":    vote.UserID,
		"quarter":    vote.Quarter,
		"created_at": vote.CreatedAt,
	}
	_, err := r.client.makeRequest(ctx, http.MethodPost, "/votes", payload, nil)
	switch apiCode(err) {
	case "":
	case codeUniqueViolation:
		return domain.ErrAlreadyVoted
	case codeQuotaExhausted:
		return domain.ErrQuotaExhausted
	}
	if err != nil {
		return fmt.Errorf("failed to save vote: %w", err)
	}
	return nil
}

func (r *voteRepository) Delete(ctx context.Context, ideaID, userID uuid.UUID, quarter string) error {
	data, err := r.client.makeRequest(ctx, http.MethodDelete, "/votes?"+voteFilter(ideaID, userID, quarter).Encode(), nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	if isEmptyArray(data) {
		return domain.ErrNotVoted
	}
	return nil
}

func (r *voteRepository) HasVoted(ctx context.Context, ideaID, userID uuid.UUID, quarter string) (bool, error) {
	query := voteFilter(ideaID, userID, quarter)
	query.Set("select", "id")
	query.Set("limit", "1")

	var rows []struct {
		ID uuid.UUID `json:"id"`
	}
	if err := r.client.get(ctx, "/votes?"+query.Encode(), &rows); err != nil {
		return false, fmt.Errorf("failed to check existing vote: %w", err)
	}
	return len(rows) > 0, nil
}

func (r *voteRepository) CountByUser(ctx context.Context, userID uuid.UUID, quarter string) (int, error) {
	ids, err := r.ListIdeaIDsByUser(ctx, userID, quarter)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (r *voteRepository) ListIdeaIDsByUser(ctx context.Context, userID uuid.UUID, quarter string) ([]uuid.UUID, error) {
	query := url.Values{
		"select":  {"idea_id"},
		"user_id": {"eq." + userID.String()},
		"quarter": {"eq." + quarter},
		"order":   {"created_at.desc"},
	}

	var rows []struct {
		IdeaID uuid.UUID `json:"idea_id"`
	}
	if err := r.client.get(ctx, "/votes?"+query.Encode(), &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch votes: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.IdeaID)
	}
	return ids, nil
}

func voteFilter(ideaID, userID uuid.UUID, quarter string) url.Values {
	return url.Values{
		"idea_id": {"eq." + ideaID.String()},
		"user_id": {"eq." + userID.String()},
		"quarter": {"eq." + quarter},
	}
}
