package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/electricworld/electricworld-core/internal/infrastructure/config"
	"github.com/electricworld/electricworld-core/internal/infrastructure/database"
	"github.com/electricworld/electricworld-core/migrations"
)

// openJournal opens the journal database named by cfg. It does not apply
// migrations.
func openJournal(cfg config.JournalConfig) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return db, nil
}

func journalCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Manage the event journal schema",
		Long: `Manage the SQLite event journal at journal.path.

The commands work whether or not journal.enabled is set, so the schema can
be prepared before the journal is switched on.`,
	}
	cmd.AddCommand(journalMigrateCmd(opts), journalStatusCmd(opts))
	return cmd
}

func journalMigrateCmd(opts *rootOptions) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending journal migrations, or roll back the latest with --down",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, c.Flags().Changed("config"))
			if err != nil {
				return err
			}
			db, err := openJournal(cfg.Journal)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // Read-only after the migration commits

			out := c.OutOrStdout()
			if down {
				if err := db.MigrateDown(c.Context(), migrations.FS, migrations.Dir); err != nil {
					return fmt.Errorf("rolling back journal migration: %w", err)
				}
				fmt.Fprintf(out, "rolled back latest migration (%s)\n", db.Path())
				return nil
			}

			if err := db.Migrate(c.Context(), migrations.FS, migrations.Dir); err != nil {
				return fmt.Errorf("running journal migrations: %w", err)
			}
			fmt.Fprintf(out, "journal schema up to date (%s)\n", db.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recently applied migration")
	return cmd
}

func journalStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List applied and pending journal migrations",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, c.Flags().Changed("config"))
			if err != nil {
				return err
			}
			db, err := openJournal(cfg.Journal)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // Status only reads

			applied, pending, err := db.MigrationStatus(c.Context(), migrations.FS, migrations.Dir)
			if err != nil {
				return fmt.Errorf("reading migration status: %w", err)
			}

			out := c.OutOrStdout()
			for _, r := range applied {
				fmt.Fprintf(out, "applied  %s  %s\n", r.Version, r.AppliedAt.UTC().Format(time.RFC3339))
			}
			for _, m := range pending {
				fmt.Fprintf(out, "pending  %s  %s\n", m.Version, m.Name)
			}
			fmt.Fprintf(out, "%d applied, %d pending\n", len(applied), len(pending))
			return nil
		},
	}
}
