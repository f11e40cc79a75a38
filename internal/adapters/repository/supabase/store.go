package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vncsmyrnk/ideabox/internal/core/domain"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
)

// Store runs units of work as a sequence of REST calls. The remote unique
// constraint and the quota trigger guard what a local transaction would.
type Store struct {
	client *Client
}

func NewStore(client *Client) *Store {
	return &Store{client: client}
}

func (s *Store) Ideas() ports.IdeaRepository {
	return &ideaRepository{client: s.client}
}

func (s *Store) Votes() ports.VoteRepository {
	return &voteRepository{client: s.client}
}

func (s *Store) Profiles() ports.ProfileRepository {
	return &profileRepository{client: s.client}
}

func (s *Store) RunInTx(ctx context.Context, fn func(tx ports.Tx) error) error {
	return fn(s)
}

// Ping reports outages as ErrStoreUnavailable. Any other rejection, such as
// a 401 or 403 for a bad service key, needs an operator and is not retryable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.makeRequest(ctx, http.MethodGet, "/ideas?select=id&limit=1", nil, nil)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	var apiErr *apiError
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
		return fmt.Errorf("supabase rejected the service key: %w", err)
	}
	return fmt.Errorf("supabase rejected the health check: %w", err)
}

// SetVotesPerQuarter stores the quota the votes_enforce_quota trigger checks
// inserts against.
func (s *Store) SetVotesPerQuarter(ctx context.Context, votes int) error {
	if votes <= 0 {
		return fmt.Errorf("votes per quarter must be positive, got %d", votes)
	}
	payload := map[string]any{
		"id":                true,
		"votes_per_quarter": votes,
		"updated_at":        time.Now().UTC(),
	}
	headers := map[string]string{"Prefer": "resolution=merge-duplicates,return=representation"}
	if _, err := s.client.makeRequest(ctx, http.MethodPost, "/quota_settings", payload, headers); err != nil {
		return fmt.Errorf("failed to save quota settings: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.client.httpClient.CloseIdleConnections()
	return nil
}
