package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
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
		logLevel   string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "ideabox",
		Short: "Idea submission and voting board API",
		Long: `ideabox serves the idea board API: submitting ideas, voting within a
per-quarter allowance, and the admin status workflow.

Settings come from an optional YAML file, overridden by environment
variables (a .env file in the working directory is loaded first).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, logLevel, addr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides the configured one")

	return cmd
}
