package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/ideabox/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
	"github.com/vncsmyrnk/ideabox/internal/core/services"
)

func TestVote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, midQuarter)
	idea := f.submit(t, "Dark mode")
	userID := uuid.New()

	info, err := f.votes.Vote(ctx, userID, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-Q1", info.CurrentQuarter)
	assert.Equal(t, 1, info.VotesUsed)
	assert.Equal(t, 4, info.VotesRemaining)
	assert.Equal(t, 5, info.TotalVotes)

	voted, err := f.votes.HasVoted(ctx, userID, idea.ID)
	require.NoError(t, err)
	assert.True(t, voted)
	assert.Equal(t, 1, f.storedVotes(t, idea.ID))
}

func TestVoteThenUnvoteRestoresState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, midQuarter)
	idea := f.submit(t, "Dark mode")
	userID := uuid.New()

	_, err := f.votes.Vote(ctx, userID, idea.ID)
	require.NoError(t, err)
	info, err := f.votes.Unvote(ctx, userID, idea.ID)
	require.NoError(t, err)

	assert.Equal(t, 5, info.VotesRemaining)
	assert.Equal(t, 0, f.storedVotes(t, idea.ID))
	voted, err := f.votes.HasVoted(ctx, userID, idea.ID)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestVoteTwiceIsRejectedWithoutSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, midQuarter)
	idea := f.submit(t, "Dark mode")
	userID := uuid.New()

	_, err := f.votes.Vote(ctx, userID, idea.ID)
	require.NoError(t, err)

	_, err = f.votes.Vote(ctx, userID, idea.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
	assert.Equal(t, 4, f.remaining(t, userID))
	assert.Equal(t, 1, f.storedVotes(t, idea.ID))
}

func TestDuplicateCheckPrecedesQuota(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, midQuarter)
	userID := uuid.New()

	var ideas []*domain.Idea
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		idea := f.submit(t, title)
		ideas = append(ideas, idea)
		_, err := f.votes.Vote(ctx, userID, idea.ID)
		require.NoError(t, err)
	}
	require.Equal(t, 0, f.remaining(t, userID))

	_, err := f.votes.Vote(ctx, userID, ideas[0].ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
}

func TestQuotaExhaustedThenUnvoteFreesSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, midQuarter)
	userID := uuid.New()

	for _, title := range []string{"a", "b", "c", "d"} {
		idea := f.submit(t, title)
		_, err := f.votes.Vote(ctx, userID, idea.ID)
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.remaining(t, userID))

	first := f.submit(t, "first")
	info, err := f.votes.Vote(ctx, userID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, info.VotesRemaining)
	assert.Equal(t, 1, f.storedVotes(t, first.ID))

	second := f.submit(t, "second")
	_, err = f.votes.Vote(ctx, userID, second.ID)
	assert.ErrorIs(t, err, domain.ErrQuotaExhausted)
	assert.Equal(t, 0, f.remaining(t, userID))
	assert.Equal(t, 0, f.storedVotes(t, second.ID))

	voted, err := f.votes.HasVoted(ctx, userID, second.ID)
	require.NoError(t, err)
	assert.False(t, voted)

	info, err = f.votes.Unvote(ctx, userID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, info.VotesRemaining)
	assert.Equal(t, 1, f.remaining(t, userID))
	assert.Equal(t, 0, f.storedVotes(t, first.ID))

	info, err = f.votes.Vote(ctx, userID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, info.VotesRemaining)
	assert.Equal(t, 0, f.remaining(t, userID))
	assert.Equal(t, 1, f.storedVotes(t, second.ID))
}

func TestUnvoteWithoutVote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, midQuarter)
	idea := f.submit(t, "Dark mode")
	userID := uuid.New()

	_, err := f.votes.Unvote(ctx, userID, idea.ID)
	assert.ErrorIs(t, err, domain.ErrNotVoted)
	assert.Equal(t, 5, f.remaining(t, userID))
	assert.Equal(t, 0, f.storedVotes(t, idea.ID))
}

func TestVoteRequiresUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, midQuarter)
	idea := f.submit(t, "Dark mode")

	_, err := f.votes.Vote(ctx, uuid.Nil, idea.ID)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = f.votes.Unvote(ctx, uuid.Nil, idea.ID)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	_, err = f.quota.Remaining(ctx, uuid.Nil)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Equal(t, 0, f.storedVotes(t, idea.ID))
}

func TestVoteUnknownIdea(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, midQuarter)
	userID := uuid.New()

	_, err := f.votes.Vote(ctx, userID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrIdeaNotFound)
	assert.Equal(t, 5, f.remaining(t, userID))
}

func TestRemainingStaysWithinBounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, midQuarter)
	userID := uuid.New()

	var ideas []*domain.Idea
	for i := 0; i < 7; i++ {
		ideas = append(ideas, f.submit(t, "idea"))
	}

	for round := 0; round < 2; round++ {
		for _, idea := range ideas {
			_, _ = f.votes.Vote(ctx, userID, idea.ID)
			remaining := f.remaining(t, userID)
			assert.GreaterOrEqual(t, remaining, 0)
			assert.LessOrEqual(t, remaining, 5)
		}
		for _, idea := range ideas {
			_, _ = f.votes.Unvote(ctx, userID, idea.ID)
			remaining := f.remaining(t, userID)
			assert.GreaterOrEqual(t, remaining, 0)
			assert.LessOrEqual(t, remaining, 5)
		}
	}
	assert.Equal(t, 5, f.remaining(t, userID))
}

func TestQuarterRolloverRetainsPriorVotes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Date(2023, time.December, 31, 23, 0, 0, 0, time.UTC))
	userID := uuid.New()

	var ideas []*domain.Idea
	for _, title := range []string{"a", "b", "c"} {
		idea := f.submit(t, title)
		ideas = append(ideas, idea)
		_, err := f.votes.Vote(ctx, userID, idea.ID)
		require.NoError(t, err)
	}
	require.Equal(t, 2, f.remaining(t, userID))

	f.clock.Set(time.Date(2024, time.January, 1, 0, 30, 0, 0, time.UTC))

	info, err := f.quota.QuarterInfo(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "2024-Q1", info.CurrentQuarter)
	assert.Equal(t, 5, info.VotesRemaining)

	for _, idea := range ideas {
		voted, err := f.votes.HasVoted(ctx, userID, idea.ID)
		require.NoError(t, err)
		assert.False(t, voted)
		assert.Equal(t, 1, f.storedVotes(t, idea.ID))
	}

	_, err = f.votes.Unvote(ctx, userID, ideas[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotVoted)

	info, err = f.votes.Vote(ctx, userID, ideas[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 4, info.VotesRemaining)
	assert.Equal(t, 2, f.storedVotes(t, ideas[0].ID))
}

func TestQuarterInfo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, midQuarter)

	info, err := f.quota.QuarterInfo(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), info.QuarterStart)
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), info.NextQuarterStart)
	assert.Equal(t, 0, info.VotesUsed)
	assert.Contains(t, info.ResetsIn, "from now")
}

func TestVoteStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, midQuarter)
	idea := f.submit(t, "Dark mode")
	userID := uuid.New()

	f.store.SetUnavailable(errors.New("connection reset"))
	_, err := f.votes.Vote(ctx, userID, idea.ID)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.True(t, domain.IsRetryable(err))

	f.store.SetUnavailable(nil)
	assert.Equal(t, 0, f.storedVotes(t, idea.ID))
	assert.Equal(t, 5, f.remaining(t, userID))
}

func TestVoteDeadlineIsRetryable(t *testing.T) {
	f := newFixture(t, midQuarter)
	idea := f.submit(t, "Dark mode")

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := f.votes.Vote(ctx, uuid.New(), idea.ID)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConcurrentVotesFromDifferentUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, midQuarter)
	idea := f.submit(t, "Dark mode")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.votes.Vote(ctx, uuid.New(), idea.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, f.storedVotes(t, idea.ID))
}

func TestConcurrentVotesNeverExceedQuota(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, midQuarter)
	userID := uuid.New()

	var ideas []*domain.Idea
	for i := 0; i < 10; i++ {
		ideas = append(ideas, f.submit(t, "idea"))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		exhausted int
	)
	for _, idea := range ideas {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := f.votes.Vote(ctx, userID, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrQuotaExhausted):
				exhausted++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(idea.ID)
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 5, exhausted)
	assert.Equal(t, 0, f.remaining(t, userID))

	voted, err := f.votes.VotedIdeas(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, voted, 5)
}

// queuedPublisher records events without delivering them to anyone.
type queuedPublisher struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (p *queuedPublisher) Publish(_ context.Context, event domain.ChangeEvent) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	return nil
}

func (p *queuedPublisher) kinds() []domain.ChangeKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	kinds := make([]domain.ChangeKind, 0, len(p.events))
	for _, event := range p.events {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}

func TestVoteRefreshesIdeasBeforeEventDelivery(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	publisher := &queuedPublisher{}
	clock := &fakeClock{now: midQuarter}

	quota := services.NewQuotaService(store, services.QuotaConfig{Clock: clock.Now})
	votes := services.NewVoteService(store, quota, publisher, nil, time.Second)
	ideas := services.NewIdeaService(store, votes, publisher, nil, services.IdeaConfig{Timeout: time.Second, Clock: clock.Now})

	idea, err := ideas.Submit(ctx, ports.SubmitIdeaInput{
		UserID:         uuid.New(),
		Title:          "Dark mode",
		Description:    "Add a dark theme",
		Category:       "User Interface",
		UsageFrequency: domain.UsageHigh,
	})
	require.NoError(t, err)

	_, err = ideas.ListIdeas(ctx, ports.ListIdeasInput{})
	require.NoError(t, err)

	userID := uuid.New()
	_, err = votes.Vote(ctx, userID, idea.ID)
	require.NoError(t, err)

	view, err := ideas.GetIdea(ctx, idea.ID, userID)
	require.NoError(t, err)
	assert.True(t, view.HasVoted)
	assert.Equal(t, 1, view.Votes)
	require.Len(t, view.Voters, 1)
	assert.Equal(t, userID, view.Voters[0].UserID)

	_, err = votes.Unvote(ctx, userID, idea.ID)
	require.NoError(t, err)

	view, err = ideas.GetIdea(ctx, idea.ID, userID)
	require.NoError(t, err)
	assert.False(t, view.HasVoted)
	assert.Equal(t, 0, view.Votes)
	assert.Empty(t, view.Voters)

	assert.Equal(t, []domain.ChangeKind{domain.ChangeIdeaCreated, domain.ChangeVoteCast, domain.ChangeVoteRemoved}, publisher.kinds())
}

// failingReadStore serves transactions normally but fails vote counts read
// outside of them.
type failingReadStore struct {
	*memory.Store
}

func (s failingReadStore) Votes() ports.VoteRepository {
	return failingCountRepository{VoteRepository: s.Store.Votes()}
}

type failingCountRepository struct {
	ports.VoteRepository
}

func (failingCountRepository) CountByUser(context.Context, uuid.UUID, string) (int, error) {
	return 0, domain.NewUnavailableError(errors.New("read replica down"))
}

func TestVoteResultComesFromCommittedTransaction(t *testing.T) {
	ctx := context.Background()
	base := memory.NewStore()
	store := failingReadStore{Store: base}

	quota := services.NewQuotaService(store, services.QuotaConfig{Clock: func() time.Time { return midQuarter }})
	votes := services.NewVoteService(store, quota, nil, nil, time.Second)
	ideas := services.NewIdeaService(store, votes, nil, nil, services.IdeaConfig{Timeout: time.Second})

	idea, err := ideas.Submit(ctx, ports.SubmitIdeaInput{
		UserID:         uuid.New(),
		Title:          "Audit log",
		Description:    "Record admin changes",
		Category:       "Security",
		UsageFrequency: domain.UsageLow,
	})
	require.NoError(t, err)

	userID := uuid.New()
	info, err := votes.Vote(ctx, userID, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, info.VotesUsed)
	assert.Equal(t, 4, info.VotesRemaining)
	assert.Equal(t, "2024-Q1", info.CurrentQuarter)

	info, err = votes.Unvote(ctx, userID, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, info.VotesUsed)
	assert.Equal(t, 5, info.VotesRemaining)

	_, err = quota.QuarterInfo(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
