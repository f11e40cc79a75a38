package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewStore(NewClient(server.URL, "service-key", time.Second))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestListWithVotesDecodesView(t *testing.T) {
	ideaID, voterID := uuid.New(), uuid.New()
	var gotPath, gotKey, gotAuth string

	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, []map[string]any{{
			"id":                   ideaID,
			"title":                "Dark mode",
			"description":          "Add a dark theme",
			"category":             "User Interface",
			"usage_frequency":      "High",
			"status":               "Planned",
			"notes":                nil,
			"votes":                1,
			"created_by":           nil,
			"created_at":           "2024-02-01T10:00:00.123456+00:00",
			"updated_at":           "2024-02-01T10:00:00+00:00",
			"voters":               []map[string]any{{"user_id": voterID, "full_name": "Ada", "company_name": nil}},
			"submitted_by":         nil,
			"submitted_by_company": nil,
		}})
	})

	ideas, err := store.Ideas().ListWithVotes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/rest/v1/ideas_with_votes?select=*&order=created_at.desc", gotPath)
	assert.Equal(t, "service-key", gotKey)
	assert.Equal(t, "Bearer service-key", gotAuth)

	require.Len(t, ideas, 1)
	assert.Equal(t, ideaID, ideas[0].ID)
	assert.Equal(t, domain.StatusPlanned, ideas[0].Status)
	assert.Equal(t, 1, ideas[0].Votes)
	require.Len(t, ideas[0].Voters, 1)
	assert.Equal(t, voterID, ideas[0].Voters[0].UserID)
	assert.Nil(t, ideas[0].Voters[0].CompanyName)
}

func TestSaveVoteMapsConflicts(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   map[string]any
		want   error
	}{
		{"unique violation", http.StatusConflict, map[string]any{"code": "23505", "message": "duplicate key value violates unique constraint"}, domain.ErrAlreadyVoted},
		{"quota trigger", http.StatusBadRequest, map[string]any{"code": "P0001", "message": "no votes remaining this quarter"}, domain.ErrQuotaExhausted},
		{"server error", http.StatusServiceUnavailable, map[string]any{"message": "upstream down"}, domain.ErrStoreUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/rest/v1/votes", r.URL.Path)
				writeJSON(w, tt.status, tt.body)
			})

			err := store.Votes().Save(context.Background(), &domain.Vote{ID: uuid.New(), IdeaID: uuid.New(), UserID: uuid.New(), Quarter: "2024-Q1"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDeleteVoteWithoutMatch(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "eq.2024-Q1", r.URL.Query().Get("quarter"))
		writeJSON(w, http.StatusOK, []any{})
	})

	err := store.Votes().Delete(context.Background(), uuid.New(), uuid.New(), "2024-Q1")
	assert.ErrorIs(t, err, domain.ErrNotVoted)
}

func TestCountByUser(t *testing.T) {
	userID := uuid.New()
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq."+userID.String(), r.URL.Query().Get("user_id"))
		writeJSON(w, http.StatusOK, []map[string]any{{"idea_id": uuid.New()}, {"idea_id": uuid.New()}})
	})

	count, err := store.Votes().CountByUser(context.Background(), userID, "2024-Q1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestGetIdeaNotFound(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})

	_, err := store.Ideas().GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrIdeaNotFound)
}

func TestUnreachableServerIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	store := NewStore(NewClient(server.URL, "service-key", time.Second))

	_, err := store.Votes().HasVoted(context.Background(), uuid.New(), uuid.New(), "2024-Q1")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, store.Ping(context.Background()), domain.ErrStoreUnavailable)
}

func TestSetVotesPerQuarterUpsertsSettings(t *testing.T) {
	var gotMethod, gotPath, gotPrefer string
	var gotBody map[string]any

	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotPrefer = r.Header.Get("Prefer")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusCreated, []map[string]any{{"id": true, "votes_per_quarter": 3}})
	})

	require.NoError(t, store.SetVotesPerQuarter(context.Background(), 3))
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/rest/v1/quota_settings", gotPath)
	assert.Equal(t, "resolution=merge-duplicates,return=representation", gotPrefer)
	assert.Equal(t, true, gotBody["id"])
	assert.EqualValues(t, 3, gotBody["votes_per_quarter"])
}

func TestSetVotesPerQuarterRejectsNonPositive(t *testing.T) {
	called := false
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	})

	assert.Error(t, store.SetVotesPerQuarter(context.Background(), 0))
	assert.False(t, called)
}

func TestPing(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        map[string]any
		unavailable bool
	}{
		{"ok", http.StatusOK, nil, false},
		{"bad key", http.StatusUnauthorized, map[string]any{"message": "Invalid API key"}, false},
		{"forbidden", http.StatusForbidden, map[string]any{"code": "42501", "message": "permission denied for table ideas"}, false},
		{"missing table", http.StatusNotFound, map[string]any{"code": "42P01", "message": "relation \"ideas\" does not exist"}, false},
		{"server error", http.StatusServiceUnavailable, map[string]any{"message": "upstream down"}, true},
		{"rate limited", http.StatusTooManyRequests, map[string]any{"message": "slow down"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.body == nil {
					writeJSON(w, tt.status, []map[string]any{})
					return
				}
				writeJSON(w, tt.status, tt.body)
			})

			err := store.Ping(context.Background())
			if tt.status == http.StatusOK {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.unavailable, errors.Is(err, domain.ErrStoreUnavailable))
			assert.Equal(t, tt.unavailable, domain.IsRetryable(err))

			var apiErr *apiError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)

			if tt.unavailable {
				var unavailable *domain.UnavailableError
				require.True(t, errors.As(err, &unavailable))
				var nested *domain.UnavailableError
				assert.False(t, errors.As(unavailable.Unwrap(), &nested), "unavailable error wrapped twice")
			}
		})
	}
}
