package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/vncsmyrnk/ideabox/internal/config"
)

const defaultMigrationsDir = "internal/adapters/repository/postgres/migrations"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		dir  string
		down bool
	)

	cmd := &cobra.Command{
		Use:   "migrations [name]",
		Short: "Apply SQL migrations to the Postgres database",
		Long: `Runs the migration whose file name contains name, or every up migration
in order when no name is given. The connection comes from DATABASE_URL or
the POSTGRES_* variables.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				slog.Warn("no .env file found")
			}

			cfg := config.DefaultConfig()
			cfg.ApplyEnv(os.Getenv)
			if cfg.Store.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL or POSTGRES_HOST is required")
			}

			suffix := ".up.sql"
			if down {
				suffix = ".down.sql"
			}

			var files []string
			if len(args) == 1 {
				name, err := migrationFilePath(dir, args[0], suffix)
				if err != nil {
					return err
				}
				files = []string{name}
			} else {
				all, err := migrationFiles(dir, suffix)
				if err != nil {
					return err
				}
				files = all
			}

			db, err := sql.Open("postgres", cfg.Store.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			for _, name := range files {
				content, err := os.ReadFile(filepath.Join(dir, name))
				if err != nil {
					return err
				}
				if _, err := db.Exec(string(content)); err != nil {
					return fmt.Errorf("failed to execute %s: %w", name, err)
				}
				slog.Info("migration applied", "file", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", defaultMigrationsDir, "Directory holding the migration files")
	cmd.Flags().BoolVar(&down, "down", false, "Apply the down migration instead")

	return cmd
}

func migrationFiles(basePath, suffix string) ([]string, error) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), suffix) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	if suffix == ".down.sql" {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	}
	return names, nil
}

func migrationFilePath(basePath, migrationName, suffix string) (string, error) {
	regex, err := regexp.Compile(fmt.Sprintf(`^.*%s%s$`, regexp.QuoteMeta(migrationName), regexp.QuoteMeta(suffix)))
	if err != nil {
		return "", fmt.Errorf("invalid pattern: %w", err)
	}

	files, err := os.ReadDir(basePath)
	if err != nil {
		return "", fmt.Errorf("failed to read migrations directory: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if regex.MatchString(f.Name()) {
			return f.Name(), nil
		}
	}

	return "", fmt.Errorf("migration file not found")
}
