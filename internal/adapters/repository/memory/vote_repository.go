package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

type voteRepository struct {
	view   accessor
	update accessor
}

func (r *voteRepository) Save(ctx context.Context, vote *domain.Vote) error {
	return r.update(ctx, func(st *state) error {
		if _, ok := st.ideas[vote.IdeaID]; !ok {
			return domain.ErrIdeaNotFound
		}
		key := voteKey{ideaID: vote.IdeaID, userID: vote.UserID, quarter: vote.Quarter}
		if _, ok := st.votes[key]; ok {
			return domain.ErrAlreadyVoted
		}
		st.votes[key] = *vote
		return nil
	})
}

func (r *voteRepository) Delete(ctx context.Context, ideaID, userID uuid.UUID, quarter string) error {
	return r.update(ctx, func(st *state) error {
		key := voteKey{ideaID: ideaID, userID: userID, quarter: quarter}
		if _, ok := st.votes[key]; !ok {
			return domain.ErrNotVoted
		}
		delete(st.votes, key)
		return nil
	})
}

func (r *voteRepository) HasVoted(ctx context.Context, ideaID, userID uuid.UUID, quarter string) (bool, error) {
	var found bool
	err := r.view(ctx, func(st *state) error {
		_, found = st.votes[voteKey{ideaID: ideaID, userID: userID, quarter: quarter}]
		return nil
	})
	return found, err
}

func (r *voteRepository) CountByUser(ctx context.Context, userID uuid.UUID, quarter string) (int, error) {
	var count int
	err := r.view(ctx, func(st *state) error {
		for key := range st.votes {
			if key.userID == userID && key.quarter == quarter {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *voteRepository) ListIdeaIDsByUser(ctx context.Context, userID uuid.UUID, quarter string) ([]uuid.UUID, error) {
	var votes []domain.Vote
	err := r.view(ctx, func(st *state) error {
		for key, vote := range st.votes {
			if key.userID == userID && key.quarter == quarter {
				votes = append(votes, vote)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(votes, func(i, j int) bool {
		return votes[i].CreatedAt.After(votes[j].CreatedAt)
	})
	ids := make([]uuid.UUID, 0, len(votes))
	for _, vote := range votes {
		ids = append(ids, vote.IdeaID)
	}
	return ids, nil
}
