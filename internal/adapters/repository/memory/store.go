// Package memory keeps the whole board in process memory. Transactions work
// on a copy of the state that replaces the live one on commit.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
)

type voteKey struct {
	ideaID  uuid.UUID
	userID  uuid.UUID
	quarter string
}

type state struct {
	ideas    map[uuid.UUID]domain.Idea
	votes    map[voteKey]domain.Vote
	profiles map[uuid.UUID]domain.Profile
}

func newState() *state {
	return &state{
		ideas:    map[uuid.UUID]domain.Idea{},
		votes:    map[voteKey]domain.Vote{},
		profiles: map[uuid.UUID]domain.Profile{},
	}
}

func (s *state) clone() *state {
	c := &state{
		ideas:    make(map[uuid.UUID]domain.Idea, len(s.ideas)),
		votes:    make(map[voteKey]domain.Vote, len(s.votes)),
		profiles: make(map[uuid.UUID]domain.Profile, len(s.profiles)),
	}
	for k, v := range s.ideas {
		c.ideas[k] = v
	}
	for k, v := range s.votes {
		c.votes[k] = v
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	return c
}

type Store struct {
	mu      sync.RWMutex
	writeMu sync.Mutex
	current *state
	failure error
}

func NewStore() *Store {
	return &Store{current: newState()}
}

// SetUnavailable makes every subsequent call fail as a retryable store
// failure wrapping err. A nil err restores normal operation.
func (s *Store) SetUnavailable(err error) {
	s.mu.Lock()
	s.failure = err
	s.mu.Unlock()
}

func (s *Store) unavailable() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.NewUnavailableError(s.failure)
}

func (s *Store) view(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.unavailable(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.current)
}

func (s *Store) update(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.unavailable(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	next := s.current.clone()
	s.mu.RUnlock()

	if err := fn(next); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return nil
}

func (s *Store) Ideas() ports.IdeaRepository {
	return &ideaRepository{view: s.view, update: s.update}
}

func (s *Store) Votes() ports.VoteRepository {
	return &voteRepository{view: s.view, update: s.update}
}

func (s *Store) Profiles() ports.ProfileRepository {
	return &profileRepository{view: s.view, update: s.update}
}

func (s *Store) RunInTx(ctx context.Context, fn func(tx ports.Tx) error) error {
	return s.update(ctx, func(st *state) error {
		direct := func(_ context.Context, fn func(*state) error) error {
			return fn(st)
		}
		return fn(&tx{
			ideas: &ideaRepository{view: direct, update: direct},
			votes: &voteRepository{view: direct, update: direct},
		})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.unavailable()
}

func (s *Store) Close() error {
	return nil
}

type tx struct {
	ideas *ideaRepository
	votes *voteRepository
}

func (t *tx) Ideas() ports.IdeaRepository { return t.ideas }
func (t *tx) Votes() ports.VoteRepository { return t.votes }

type accessor func(ctx context.Context, fn func(*state) error) error
