package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to connStr and verifies the connection.
func Open(ctx context.Context, connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, unavailable(fmt.Errorf("failed to connect to database: %w", err))
	}
	return &Store{db: db}, nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Ideas() ports.IdeaRepository {
	return &ideaRepository{db: s.db}
}

func (s *Store) Votes() ports.VoteRepository {
	return &voteRepository{db: s.db}
}

func (s *Store) Profiles() ports.ProfileRepository {
	return &profileRepository{db: s.db}
}

func (s *Store) RunInTx(ctx context.Context, fn func(tx ports.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(fmt.Errorf("failed to begin transaction: %w", err))
	}

	if err := fn(&tx{
		ideas: &ideaRepository{db: sqlTx},
		votes: &voteRepository{db: sqlTx, inTx: true},
	}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return unavailable(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return domain.NewUnavailableError(err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type tx struct {
	ideas *ideaRepository
	votes *voteRepository
}

func (t *tx) Ideas() ports.IdeaRepository { return t.ideas }
func (t *tx) Votes() ports.VoteRepository { return t.votes }

// unavailable marks connection-level failures as retryable and passes
// everything else through.
func unavailable(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return domain.NewUnavailableError(err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code.Class() == "08", pqErr.Code == "57P01", pqErr.Code == "53300":
			return domain.NewUnavailableError(err)
		}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
