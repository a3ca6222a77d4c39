package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/kakeibo/internal/cli"
	"github.com/Veraticus/kakeibo/internal/config"
	"github.com/Veraticus/kakeibo/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every other command migrates on startup, so this is mostly useful with
--status or to prepare a database ahead of time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			dbPath := config.DatabasePath(viper.GetViper())

			slog.Info("Starting database migration",
				"database", dbPath,
				"status_only", status)

			store, err := storage.NewSQLiteStorage(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			out := cmd.OutOrStdout()
			if status {
				v, err := store.SchemaVersion(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Database: %s\nCurrent version: %d\nLatest version: %d\n", dbPath, v, storage.ExpectedSchemaVersion)
				return nil
			}

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Fprintln(out, cli.FormatSuccess("Database migrations completed successfully"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "Show current migration status without applying changes")

	return cmd
}
