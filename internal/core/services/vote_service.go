package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
)

type voteService struct {
	store     ports.Store
	quota     ports.QuotaService
	publisher ports.ChangePublisher
	metrics   ports.VoteMetrics
	timeout   time.Duration

	mu        sync.RWMutex
	committed []ports.ChangeHandler
}

// commitObserver is implemented by services that run handlers synchronously
// after each committed vote mutation, before the change event is published.
type commitObserver interface {
	onCommit(handler ports.ChangeHandler)
}

func NewVoteService(store ports.Store, quota ports.QuotaService, publisher ports.ChangePublisher, metrics ports.VoteMetrics, timeout time.Duration) ports.VoteService {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &voteService{
		store:     store,
		quota:     quota,
		publisher: publisher,
		metrics:   metrics,
		timeout:   timeout,
	}
}

// Vote moves (user, idea) from NotVoted to Voted for the current quarter. The
// duplicate check runs before the quota check so a repeated vote never costs
// a slot, and all writes share one transaction.
func (s *voteService) Vote(ctx context.Context, userID, ideaID uuid.UUID) (*domain.QuarterInfo, error) {
	if userID == uuid.Nil {
		s.metrics.VoteRejected(rejectionReason(domain.ErrNotAuthenticated))
		return nil, domain.ErrNotAuthenticated
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	now := s.quota.Now()
	quarter := s.quota.CurrentQuarter(now)

	var used int
	err := s.store.RunInTx(ctx, func(tx ports.Tx) error {
		if _, err := tx.Ideas().GetByID(ctx, ideaID); err != nil {
			return err
		}

		hasVoted, err := tx.Votes().HasVoted(ctx, ideaID, userID, quarter)
		if err != nil {
			return fmt.Errorf("failed to check existing vote: %w", err)
		}
		if hasVoted {
			return domain.ErrAlreadyVoted
		}

		if used, err = s.quota.Consume(ctx, tx, userID, quarter); err != nil {
			return err
		}

		vote := &domain.Vote{
			ID:        uuid.New(),
			IdeaID:    ideaID,
			UserID:    userID,
			Quarter:   quarter,
			CreatedAt: now,
		}
		if err := tx.Votes().Save(ctx, vote); err != nil {
			return err
		}

		return tx.Ideas().AdjustVoteCount(ctx, ideaID, 1)
	})
	if err != nil {
		err = storeError(err)
		s.metrics.VoteRejected(rejectionReason(err))
		return nil, err
	}

	s.metrics.VoteCast()
	s.changed(ctx, domain.ChangeEvent{Kind: domain.ChangeVoteCast, IdeaID: ideaID, UserID: userID, At: now})
	slog.Info("vote cast", "idea_id", ideaID, "user_id", userID, "quarter", quarter)

	return s.quota.Info(now, used), nil
}

// Unvote moves (user, idea) from Voted back to NotVoted, releasing the slot
// and decrementing the idea's count in the same transaction.
func (s *voteService) Unvote(ctx context.Context, userID, ideaID uuid.UUID) (*domain.QuarterInfo, error) {
	if userID == uuid.Nil {
		s.metrics.VoteRejected(rejectionReason(domain.ErrNotAuthenticated))
		return nil, domain.ErrNotAuthenticated
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	now := s.quota.Now()
	quarter := s.quota.CurrentQuarter(now)

	var used int
	err := s.store.RunInTx(ctx, func(tx ports.Tx) error {
		hasVoted, err := tx.Votes().HasVoted(ctx, ideaID, userID, quarter)
		if err != nil {
			return fmt.Errorf("failed to check existing vote: %w", err)
		}
		if !hasVoted {
			return domain.ErrNotVoted
		}

		if err := tx.Votes().Delete(ctx, ideaID, userID, quarter); err != nil {
			return err
		}

		if used, err = s.quota.Release(ctx, tx, userID, quarter); err != nil {
			return err
		}

		return tx.Ideas().AdjustVoteCount(ctx, ideaID, -1)
	})
	if err != nil {
		err = storeError(err)
		s.metrics.VoteRejected(rejectionReason(err))
		return nil, err
	}

	s.metrics.VoteRemoved()
	s.changed(ctx, domain.ChangeEvent{Kind: domain.ChangeVoteRemoved, IdeaID: ideaID, UserID: userID, At: now})
	slog.Info("vote removed", "idea_id", ideaID, "user_id", userID, "quarter", quarter)

	return s.quota.Info(now, used), nil
}

func (s *voteService) HasVoted(ctx context.Context, userID, ideaID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, domain.ErrNotAuthenticated
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	quarter := s.quota.CurrentQuarter(s.quota.Now())
	hasVoted, err := s.store.Votes().HasVoted(ctx, ideaID, userID, quarter)
	if err != nil {
		return false, storeError(fmt.Errorf("failed to check existing vote: %w", err))
	}
	return hasVoted, nil
}

func (s *voteService) VotedIdeas(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrNotAuthenticated
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	quarter := s.quota.CurrentQuarter(s.quota.Now())
	ids, err := s.store.Votes().ListIdeaIDsByUser(ctx, userID, quarter)
	if err != nil {
		return nil, storeError(fmt.Errorf("failed to list votes: %w", err))
	}
	return ids, nil
}

func (s *voteService) onCommit(handler ports.ChangeHandler) {
	s.mu.Lock()
	s.committed = append(s.committed, handler)
	s.mu.Unlock()
}

// changed runs the in-process commit handlers, then publishes the event for
// other subscribers.
func (s *voteService) changed(ctx context.Context, event domain.ChangeEvent) {
	s.mu.RLock()
	handlers := s.committed
	s.mu.RUnlock()
	for _, handler := range handlers {
		handler(ctx, event)
	}
	s.publish(ctx, event)
}

func (s *voteService) publish(ctx context.Context, event domain.ChangeEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.Warn("failed to publish change event", "kind", event.Kind, "idea_id", event.IdeaID, "error", err)
	}
}
