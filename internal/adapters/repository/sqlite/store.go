// Package sqlite stores the board in a single local database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vncsmyrnk/ideabox/internal/core/domain"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL DEFAULT '',
		full_name TEXT,
		company_name TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ideas (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		usage_frequency TEXT NOT NULL CHECK (usage_frequency IN ('High', 'Low')),
		status TEXT NOT NULL DEFAULT 'Under Review',
		notes TEXT,
		vote_count INTEGER NOT NULL DEFAULT 0 CHECK (vote_count >= 0),
		created_by TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS votes (
		id TEXT PRIMARY KEY,
		idea_id TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		quarter TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (idea_id, user_id, quarter)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_votes_user_quarter ON votes (user_id, quarter)`,
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
}

// Open creates the database file under path if needed and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection serializes writers, which the quota check relies on.
	db.SetMaxOpenConns(1)

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec migration: %w", err)
		}
	}

	return &Store{db: db}, nil
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
		return unavailable(fmt.Errorf("begin transaction: %w", err))
	}

	if err := fn(&tx{
		ideas: &ideaRepository{db: sqlTx},
		votes: &voteRepository{db: sqlTx},
	}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return unavailable(fmt.Errorf("commit transaction: %w", err))
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

func sqliteCode(err error) int {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()
	}
	return 0
}

func isUniqueViolation(err error) bool {
	code := sqliteCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// unavailable marks lock contention and I/O failures as retryable.
func unavailable(err error) error {
	if err == nil {
		return nil
	}
	switch sqliteCode(err) & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_CANTOPEN:
		return domain.NewUnavailableError(err)
	}
	if errors.Is(err, sql.ErrConnDone) {
		return domain.NewUnavailableError(err)
	}
	return err
}
