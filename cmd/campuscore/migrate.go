package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teleinformatics/campus-core/internal/infrastructure/database"
	"github.com/teleinformatics/campus-core/internal/infrastructure/logging"
)

func newMigrateCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	withDB := func(cmd *cobra.Command, fn func(db *database.DB, log *logging.Logger) error) error {
		cfg, err := load()
		if err != nil {
			return err
		}
		log := logging.New(cfg.Logging, cfg.Service.Name, version)

		db, err := database.Open(cmd.Context(), database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close() //nolint:errcheck // read-mostly CLI command

		return fn(db, log)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd, func(db *database.DB, log *logging.Logger) error {
					if err := db.Migrate(cmd.Context(), log.Logger); err != nil {
						return err
					}
					return printStatus(cmd, db)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd, func(db *database.DB, log *logging.Logger) error {
					if err := db.MigrateDown(cmd.Context(), log.Logger); err != nil {
						return err
					}
					return printStatus(cmd, db)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current and latest schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd, func(db *database.DB, _ *logging.Logger) error {
					return printStatus(cmd, db)
				})
			},
		},
	)
	return cmd
}

func printStatus(cmd *cobra.Command, db *database.DB) error {
	st, err := db.MigrationStatus(cmd.Context())
	if err != nil {
		return err
	}
	pending := "up to date"
	if st.Pending() {
		pending = "pending migrations"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d of %d (%s)\n", st.Current, st.Latest, pending)
	return err
}
