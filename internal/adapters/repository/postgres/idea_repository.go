package postgres

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

func (r *ideaRepository) Save(ctx context.Context, idea *domain.Idea) error {
	query := `
		INSERT INTO ideas (id, title, description, category, usage_frequency, status, notes, vote_count, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.db.ExecContext(ctx, query,
		idea.ID, idea.Title, idea.Description, idea.Category, idea.UsageFrequency, idea.Status,
		idea.Notes, idea.Votes, idea.CreatedBy, idea.CreatedAt, idea.UpdatedAt,
	)
	if err != nil {
		return unavailable(fmt.Errorf("failed to save idea: %w", err))
	}
	return nil
}

func (r *ideaRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Idea, error) {
	query := `
		SELECT id, title, description, category, usage_frequency, status, notes, vote_count, created_by, created_at, updated_at
		FROM ideas
		WHERE id = $1
	`
	idea, err := scanIdea(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIdeaNotFound
		}
		return nil, unavailable(fmt.Errorf("failed to fetch idea: %w", err))
	}
	return idea, nil
}

func (r *ideaRepository) Update(ctx context.Context, idea *domain.Idea) error {
	query := `
		UPDATE ideas
		SET title = $2, description = $3, category = $4, usage_frequency = $5, status = $6, notes = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		idea.ID, idea.Title, idea.Description, idea.Category, idea.UsageFrequency, idea.Status, idea.Notes, idea.UpdatedAt,
	)
	if err != nil {
		return unavailable(fmt.Errorf("failed to update idea: %w", err))
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
		return nil, unavailable(fmt.Errorf("failed to fetch ideas: %w", err))
	}
	defer rows.Close()

	var ideas []*domain.IdeaWithVotes
	byID := make(map[uuid.UUID]*domain.IdeaWithVotes)
	for rows.Next() {
		item := &domain.IdeaWithVotes{Voters: []domain.Voter{}}
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Description, &item.Category, &item.UsageFrequency, &item.Status,
			&item.Notes, &item.Votes, &item.CreatedBy, &item.CreatedAt, &item.UpdatedAt,
			&item.SubmittedBy, &item.SubmittedByCompany,
		); err != nil {
			return nil, fmt.Errorf("failed to scan idea: %w", err)
		}
		ideas = append(ideas, item)
		byID[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(fmt.Errorf("error iterating ideas: %w", err))
	}

	votersQuery := `
		SELECT v.idea_id, v.user_id, p.full_name, p.company_name
		FROM votes v
		LEFT JOIN profiles p ON p.id = v.user_id
		ORDER BY v.created_at ASC
	`
	voterRows, err := r.db.QueryContext(ctx, votersQuery)
	if err != nil {
		return nil, unavailable(fmt.Errorf("failed to fetch voters: %w", err))
	}
	defer voterRows.Close()

	for voterRows.Next() {
		var ideaID uuid.UUID
		var voter domain.Voter
		if err := voterRows.Scan(&ideaID, &voter.UserID, &voter.FullName, &voter.CompanyName); err != nil {
			return nil, fmt.Errorf("failed to scan voter: %w", err)
		}
		if item, ok := byID[ideaID]; ok {
			item.Voters = append(item.Voters, voter)
		}
	}
	if err := voterRows.Err(); err != nil {
		return nil, unavailable(fmt.Errorf("error iterating voters: %w", err))
	}

	return ideas, nil
}

func (r *ideaRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM ideas`)
	if err != nil {
		return nil, unavailable(fmt.Errorf("failed to fetch idea ids: %w", err))
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan idea id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(fmt.Errorf("error iterating idea ids: %w", err))
	}
	return ids, nil
}

func (r *ideaRepository) AdjustVoteCount(ctx context.Context, id uuid.UUID, delta int) error {
	query := `UPDATE ideas SET vote_count = GREATEST(vote_count + $2, 0) WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, delta)
	if err != nil {
		return unavailable(fmt.Errorf("failed to adjust vote count: %w", err))
	}
	return requireAffected(res, domain.ErrIdeaNotFound)
}

func (r *ideaRepository) ReconcileVoteCount(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE ideas
		SET vote_count = (SELECT COUNT(*) FROM votes WHERE idea_id = $1)
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return unavailable(fmt.Errorf("failed to reconcile votes for idea %s: %w", id, err))
	}
	return requireAffected(res, domain.ErrIdeaNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdea(row rowScanner) (*domain.Idea, error) {
	idea := &domain.Idea{}
	err := row.Scan(
		&idea.ID, &idea.Title, &idea.Description, &idea.Category, &idea.UsageFrequency, &idea.Status,
		&idea.Notes, &idea.Votes, &idea.CreatedBy, &idea.CreatedAt, &idea.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return idea, nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
