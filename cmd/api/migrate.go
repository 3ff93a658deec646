package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-spotmaps-go/pkg/database"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd, func(env *migrateEnv) error {
					return database.Migrate(cmd.Context(), env.db, env.sugar)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd, func(env *migrateEnv) error {
					return database.MigrateDown(cmd.Context(), env.db, env.sugar)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(cmd, func(env *migrateEnv) error {
					v, err := database.MigrationVersion(cmd.Context(), env.db)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
					return nil
				})
			},
		},
	)
	return cmd
}

type migrateEnv struct {
	db    *sqlx.DB
	sugar *zap.SugaredLogger
}

// withDB opens the configured database for one migrate subcommand.
func withDB(cmd *cobra.Command, fn func(*migrateEnv) error) error {
	lg, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()
	return fn(&migrateEnv{db: db, sugar: lg.Sugar()})
}
