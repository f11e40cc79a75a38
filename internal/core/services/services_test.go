package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/ideabox/internal/adapters/notify/local"
	"github.com/vncsmyrnk/ideabox/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
	"github.com/vncsmyrnk/ideabox/internal/core/services"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

type fixture struct {
	store    *memory.Store
	clock    *fakeClock
	quota    ports.QuotaService
	votes    ports.VoteService
	ideas    ports.IdeaService
	profiles ports.ProfileService
	admin    uuid.UUID
}

type fixtureOption func(*services.IdeaConfig)

func withAutoVote(cfg *services.IdeaConfig) { cfg.AutoVote = true }

func newFixture(t *testing.T, now time.Time, opts ...fixtureOption) *fixture {
	t.Helper()

	clock := &fakeClock{now: now}
	store := memory.NewStore()
	notifier := local.NewNotifier()
	t.Cleanup(func() { _ = notifier.Close() })

	quota := services.NewQuotaService(store, services.QuotaConfig{Clock: clock.Now})
	votes := services.NewVoteService(store, quota, notifier, nil, time.Second)

	admin := uuid.New()
	cfg := services.IdeaConfig{Admins: []uuid.UUID{admin}, Timeout: time.Second, Clock: clock.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	ideas := services.NewIdeaService(store, votes, notifier, nil, cfg)

	_, err := notifier.Subscribe(context.Background(), ideas.HandleChange)
	require.NoError(t, err)

	return &fixture{
		store:    store,
		clock:    clock,
		quota:    quota,
		votes:    votes,
		ideas:    ideas,
		profiles: services.NewProfileService(store, time.Second, clock.Now),
		admin:    admin,
	}
}

func (f *fixture) submit(t *testing.T, title string) *domain.Idea {
	t.Helper()
	idea, err := f.ideas.Submit(context.Background(), ports.SubmitIdeaInput{
		UserID:         uuid.New(),
		Title:          title,
		Description:    title + " description",
		Category:       "New Feature",
		UsageFrequency: domain.UsageHigh,
	})
	require.NoError(t, err)
	return idea
}

func (f *fixture) storedVotes(t *testing.T, id uuid.UUID) int {
	t.Helper()
	idea, err := f.store.Ideas().GetByID(context.Background(), id)
	require.NoError(t, err)
	return idea.Votes
}

func (f *fixture) remaining(t *testing.T, userID uuid.UUID) int {
	t.Helper()
	remaining, err := f.quota.Remaining(context.Background(), userID)
	require.NoError(t, err)
	return remaining
}

var midQuarter = time.Date(2024, time.February, 15, 10, 0, 0, 0, time.UTC)

func newSummary(f *fixture) ports.SummaryService {
	return services.NewSummaryService(f.store)
}
