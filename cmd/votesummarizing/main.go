package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vncsmyrnk/ideabox/internal/adapters/repository"
	"github.com/vncsmyrnk/ideabox/internal/config"
	"github.com/vncsmyrnk/ideabox/internal/core/services"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:          "votesummarizing",
		Short:        "Reset every idea's vote count to the number of recorded votes",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				slog.Warn("no .env file found")
			}

			cfg := config.DefaultConfig()
			if configPath != "" {
				loaded, err := config.LoadFromFile(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			cfg.ApplyEnv(os.Getenv)

			// Use a timeout for the job execution to prevent it from hanging indefinitely
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			store, err := repository.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			slog.Info("starting vote count reconciliation", "store", cfg.Store.Driver)
			if err := services.NewSummaryService(store).ReconcileAll(ctx); err != nil {
				return fmt.Errorf("error reconciling vote counts: %w", err)
			}
			slog.Info("vote count reconciliation completed successfully")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Maximum job duration")

	return cmd
}
