package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

type voteRepository struct {
	db dbtx
}

func (r *voteRepository) Save(ctx context.Context, vote *domain.Vote) error {
	query := `INSERT INTO votes (id, idea_id, user_id, quarter, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, vote.ID, vote.IdeaID, vote.UserID, vote.Quarter, vote.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyVoted
		}
		return unavailable(fmt.Errorf("save vote: %w", err))
	}
	return nil
}

func (r *voteRepository) Delete(ctx context.Context, ideaID, userID uuid.UUID, quarter string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM votes WHERE idea_id = ? AND user_id = ? AND quarter = ?`, ideaID, userID, quarter)
	if err != nil {
		return unavailable(fmt.Errorf("delete vote: %w", err))
	}
	return requireAffected(res, domain.ErrNotVoted)
}

func (r *voteRepository) HasVoted(ctx context.Context, ideaID, userID uuid.UUID, quarter string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM votes WHERE idea_id = ? AND user_id = ? AND quarter = ? LIMIT 1`,
		ideaID, userID, quarter,
	).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, unavailable(fmt.Errorf("check vote: %w", err))
	}
	return true, nil
}

func (r *voteRepository) CountByUser(ctx context.Context, userID uuid.UUID, quarter string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes WHERE user_id = ? AND quarter = ?`, userID, quarter).Scan(&count)
	if err != nil {
		return 0, unavailable(fmt.Errorf("count votes: %w", err))
	}
	return count, nil
}

func (r *voteRepository) ListIdeaIDsByUser(ctx context.Context, userID uuid.UUID, quarter string) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT idea_id FROM votes WHERE user_id = ? AND quarter = ? ORDER BY created_at DESC`,
		userID, quarter,
	)
	if err != nil {
		return nil, unavailable(fmt.Errorf("list votes: %w", err))
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, unavailable(rows.Err())
}
