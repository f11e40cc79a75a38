package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

type ideaRepository struct {
	view   accessor
	update accessor
}

func (r *ideaRepository) Save(ctx context.Context, idea *domain.Idea) error {
	return r.update(ctx, func(st *state) error {
		st.ideas[idea.ID] = *idea
		return nil
	})
}

func (r *ideaRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Idea, error) {
	var idea domain.Idea
	err := r.view(ctx, func(st *state) error {
		found, ok := st.ideas[id]
		if !ok {
			return domain.ErrIdeaNotFound
		}
		idea = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

func (r *ideaRepository) Update(ctx context.Context, idea *domain.Idea) error {
	return r.update(ctx, func(st *state) error {
		stored, ok := st.ideas[idea.ID]
		if !ok {
			return domain.ErrIdeaNotFound
		}
		stored.Title = idea.Title
		stored.Description = idea.Description
		stored.Category = idea.Category
		stored.UsageFrequency = idea.UsageFrequency
		stored.Status = idea.Status
		stored.Notes = idea.Notes
		stored.UpdatedAt = idea.UpdatedAt
		st.ideas[idea.ID] = stored
		return nil
	})
}

func (r *ideaRepository) ListWithVotes(ctx context.Context) ([]*domain.IdeaWithVotes, error) {
	var result []*domain.IdeaWithVotes
	err := r.view(ctx, func(st *state) error {
		voters := map[uuid.UUID][]domain.Vote{}
		for _, vote := range st.votes {
			voters[vote.IdeaID] = append(voters[vote.IdeaID], vote)
		}

		result = make([]*domain.IdeaWithVotes, 0, len(st.ideas))
		for _, idea := range st.ideas {
			item := &domain.IdeaWithVotes{Idea: idea, Voters: []domain.Voter{}}
			if idea.CreatedBy != nil {
				if profile, ok := st.profiles[*idea.CreatedBy]; ok {
					item.SubmittedBy = profile.FullName
					item.SubmittedByCompany = profile.CompanyName
				}
			}

			votes := voters[idea.ID]
			sort.Slice(votes, func(i, j int) bool {
				return votes[i].CreatedAt.Before(votes[j].CreatedAt)
			})
			for _, vote := range votes {
				voter := domain.Voter{UserID: vote.UserID}
				if profile, ok := st.profiles[vote.UserID]; ok {
					voter.FullName = profile.FullName
					voter.CompanyName = profile.CompanyName
				}
				item.Voters = append(item.Voters, voter)
			}
			result = append(result, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *ideaRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.view(ctx, func(st *state) error {
		ids = make([]uuid.UUID, 0, len(st.ideas))
		for id := range st.ideas {
			ids = append(ids, id)
		}
		return nil
	})
	return ids, err
}

func (r *ideaRepository) AdjustVoteCount(ctx context.Context, id uuid.UUID, delta int) error {
	return r.update(ctx, func(st *state) error {
		idea, ok := st.ideas[id]
		if !ok {
			return domain.ErrIdeaNotFound
		}
		idea.Votes = max(idea.Votes+delta, 0)
		st.ideas[id] = idea
		return nil
	})
}

func (r *ideaRepository) ReconcileVoteCount(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, func(st *state) error {
		idea, ok := st.ideas[id]
		if !ok {
			return domain.ErrIdeaNotFound
		}
		count := 0
		for key := range st.votes {
			if key.ideaID == id {
				count++
			}
		}
		idea.Votes = count
		st.ideas[id] = idea
		return nil
	})
}
