// Package repository selects a store backend from configuration.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vncsmyrnk/ideabox/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/ideabox/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/ideabox/internal/adapters/repository/sqlite"
	"github.com/vncsmyrnk/ideabox/internal/adapters/repository/supabase"
	"github.com/vncsmyrnk/ideabox/internal/config"
	"github.com/vncsmyrnk/ideabox/internal/core/ports"
)

// Open connects the configured backend. The supabase quota trigger is set to
// the configured votes per quarter.
func Open(ctx context.Context, cfg *config.Config) (ports.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return store, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return store, nil
	case config.DriverSupabase:
		store := supabase.NewStore(supabase.NewClient(cfg.Store.SupabaseURL, cfg.Store.SupabaseKey, cfg.Store.Timeout))
		if err := store.SetVotesPerQuarter(ctx, cfg.Voting.VotesPerQuarter); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("configure supabase quota: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
