package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

type voteRepository struct {
	db   dbtx
	inTx bool
}

func (r *voteRepository) Save(ctx context.Context, vote *domain.Vote) error {
	query := `
		INSERT INTO votes (id, idea_id, user_id, quarter, created_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := r.db.ExecContext(ctx, query, vote.ID, vote.IdeaID, vote.UserID, vote.Quarter, vote.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyVoted
		}
		return unavailable(fmt.Errorf("failed to save vote: %w", err))
	}
	return nil
}

func (r *voteRepository) Delete(ctx context.Context, ideaID, userID uuid.UUID, quarter string) error {
	query := `DELETE FROM votes WHERE idea_id = $1 AND user_id = $2 AND quarter = $3`
	res, err := r.db.ExecContext(ctx, query, ideaID, userID, quarter)
	if err != nil {
		return unavailable(fmt.Errorf("failed to delete vote: %w", err))
	}
	return requireAffected(res, domain.ErrNotVoted)
}

func (r *voteRepository) HasVoted(ctx context.Context, ideaID, userID uuid.UUID, quarter string) (bool, error) {
	query := `SELECT 1 FROM votes WHERE idea_id = $1 AND user_id = $2 AND quarter = $3 LIMIT 1`
	var exists int
	err := r.db.QueryRowContext(ctx, query, ideaID, userID, quarter).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, unavailable(fmt.Errorf("failed to check existing vote: %w", err))
	}
	return true, nil
}

// CountByUser inside a transaction also takes a per-user advisory lock held
// until commit, so concurrent quota checks for one user run one at a time.
func (r *voteRepository) CountByUser(ctx context.Context, userID uuid.UUID, quarter string) (int, error) {
	if r.inTx {
		if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID.String()); err != nil {
			return 0, unavailable(fmt.Errorf("failed to lock quota: %w", err))
		}
	}

	query := `SELECT COUNT(*) FROM votes WHERE user_id = $1 AND quarter = $2`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, quarter).Scan(&count); err != nil {
		return 0, unavailable(fmt.Errorf("failed to count votes: %w", err))
	}
	return count, nil
}

func (r *voteRepository) ListIdeaIDsByUser(ctx context.Context, userID uuid.UUID, quarter string) ([]uuid.UUID, error) {
	query := `SELECT idea_id FROM votes WHERE user_id = $1 AND quarter = $2 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, quarter)
	if err != nil {
		return nil, unavailable(fmt.Errorf("failed to fetch votes: %w", err))
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(fmt.Errorf("error iterating votes: %w", err))
	}
	return ids, nil
}
