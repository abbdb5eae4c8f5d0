// campus-core - stateless bearer-token authentication service
//
// This is the main entry point for the campuscore binary. It serves the
// HTTP API, manages the SQLite schema, and inspects issued tokens.
//
//	campuscore serve --config configs/config.yaml
//	campuscore migrate status
//	campuscore token inspect <token>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teleinformatics/campus-core/internal/infrastructure/config"
	_ "github.com/teleinformatics/campus-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// configEnvVar names the environment variable consulted when --config is
// not given.
const configEnvVar = "CAMPUS_CONFIG"

func main() {
	// Cancel on Ctrl+C or SIGTERM so serve shuts down gracefully.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1) //nolint:gocritic // cancel called explicitly above
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "campuscore",
		Short:         "campus-core authentication service",
		Long:          "Registers identities, issues HS256 bearer tokens, and authenticates API requests.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to config file (default $"+configEnvVar+" or "+defaultConfigPath+")")

	load := func() (*config.Config, error) {
		path := resolveConfigPath(configPath)
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		return cfg, nil
	}

	rootCmd.AddCommand(
		newServeCmd(load),
		newMigrateCmd(load),
		newTokenCmd(load),
		newVersionCmd(),
	)
	return rootCmd
}

// configLoader loads and validates configuration for a subcommand.
type configLoader func() (*config.Config, error)

// resolveConfigPath picks the flag value, then $CAMPUS_CONFIG, then the default.
func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	return defaultConfigPath
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "campuscore %s (commit: %s, built: %s)\n", version, commit, date)
			return err
		},
	}
}
