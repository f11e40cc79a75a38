package ports

import (
	"context"
)

// Store is the persistence boundary. Every backend exposes its repositories
// directly for reads and through RunInTx for mutations that must land together.
type Store interface {
	Ideas() IdeaRepository
	Votes() VoteRepository
	Profiles() ProfileRepository
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}

// Tx exposes the repositories bound to one unit of work. Returning an error
// from the RunInTx callback discards every write made through it.
type Tx interface {
	Ideas() IdeaRepository
	Votes() VoteRepository
}
