package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

type ideaRepository struct {
	db dbtx
}

const ideaColumns = `id, title, description, category, usage_frequency, status, notes, vote_count, created_by, created_at, updated_at`

func (r *ideaRepository) Save(ctx context.Context, idea *domain.Idea) error {
	query := `INSERT INTO ideas (` + ideaColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		idea.ID, idea.Title, idea.Description, idea.Category, string(idea.UsageFrequency), string(idea.Status),
		idea.Notes, idea.Votes, idea.CreatedBy, idea.CreatedAt.UTC(), idea.UpdatedAt.UTC(),
	)
	if err != nil {
		return unavailable(fmt.Errorf("save idea: %w", err))
	}
	return nil
}

func (r *ideaRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Idea, error) {
	query := `SELECT ` + ideaColumns + ` FROM ideas WHERE id = ?`
	idea := &domain.Idea{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(ideaFields(idea)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIdeaNotFound
		}
		return nil, unavailable(fmt.Errorf("get idea: %w", err))
	}
	return idea, nil
}

func (r *ideaRepository) Update(ctx context.Context, idea *domain.Idea) error {
	query := `
		UPDATE ideas
		SET title = ?, description = ?, category = ?, usage_frequency = ?, status = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		idea.Title, idea.Description, idea.Category, string(idea.UsageFrequency), string(idea.Status),
		idea.Notes, idea.UpdatedAt.UTC(), idea.ID,
	)
	if err != nil {
		return unavailable(fmt.Errorf("update idea: %w", err))
	}
	return requireAffected(res, domain.ErrIdeaNotFound)
}

func (r *ideaRepository) ListWithVotes(ctx context.Context) ([]*domain.IdeaWithVotes, error) {
	query := `
		SELECT i.id, i.title, i.description, i.category, i.usage_frequency, i.status, i.notes, i.vote_count,
		       i.created_by, i.created_at, i.updated_at, p.full_name, p.company_name
		FROM ideas i
		LEFT JOIN profiles p ON p.id = i.created_by
		ORDER BY i.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, unavailable(fmt.Errorf("list ideas: %w", err))
	}
	defer rows.Close()

	var ideas []*domain.IdeaWithVotes
	byID := make(map[uuid.UUID]*domain.IdeaWithVotes)
	for rows.Next() {
		item := &domain.IdeaWithVotes{Voters: []domain.Voter{}}
		dest := append(ideaFields(&item.Idea), &item.SubmittedBy, &item.SubmittedByCompany)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan idea: %w", err)
		}
		ideas = append(ideas, item)
		byID[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(fmt.Errorf("iterate ideas: %w", err))
	}
	rows.Close()

	voterRows, err := r.db.QueryContext(ctx, `
		SELECT v.idea_id, v.user_id, p.full_name, p.company_name
		FROM votes v
		LEFT JOIN profiles p ON p.id = v.user_id
		ORDER BY v.created_at ASC
	`)
	if err != nil {
		return nil, unavailable(fmt.Errorf("list voters: %w", err))
	}
	defer voterRows.Close()

	for voterRows.Next() {
		var ideaID uuid.UUID
		var voter domain.Voter
		if err := voterRows.Scan(&ideaID, &voter.UserID, &voter.FullName, &voter.CompanyName); err != nil {
			return nil, fmt.Errorf("scan voter: %w", err)
		}
		if item, ok := byID[ideaID]; ok {
			item.Voters = append(item.Voters, voter)
		}
	}
	if err := voterRows.Err(); err != nil {
		return nil, unavailable(fmt.Errorf("iterate voters: %w", err))
	}

	return ideas, nil
}

func (r *ideaRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM ideas`)
	if err != nil {
		return nil, unavailable(fmt.Errorf("list idea ids: %w", err))
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan idea id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, unavailable(rows.Err())
}

func (r *ideaRepository) AdjustVoteCount(ctx context.Context, id uuid.UUID, delta int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE ideas SET vote_count = MAX(vote_count + ?, 0) WHERE id = ?`, delta, id)
	if err != nil {
		return unavailable(fmt.Errorf("adjust vote count: %w", err))
	}
	return requireAffected(res, domain.ErrIdeaNotFound)
}

func (r *ideaRepository) ReconcileVoteCount(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE ideas SET vote_count = (SELECT COUNT(*) FROM votes WHERE idea_id = ?) WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, id, id)
	if err != nil {
		return unavailable(fmt.Errorf("reconcile votes for idea %s: %w", id, err))
	}
	return requireAffected(res, domain.ErrIdeaNotFound)
}

func ideaFields(idea *domain.Idea) []any {
	return []any{
		&idea.ID, &idea.Title, &idea.Description, &idea.Category, &idea.UsageFrequency, &idea.Status,
		&idea.Notes, &idea.Votes, &idea.CreatedBy, &idea.CreatedAt, &idea.UpdatedAt,
	}
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
