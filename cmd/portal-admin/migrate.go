package main

import (
	"github.com/spf13/cobra"

	"github.com/noah-isme/student-portal-api/pkg/database"
)

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
				if err := database.MigrateUp(cmd.Context(), rt.db); err != nil {
					return err
				}
				rt.logger.Info("migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
				if err := database.MigrateDown(cmd.Context(), rt.db); err != nil {
					return err
				}
				rt.logger.Info("migration rolled back")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print applied and pending migrations",
			RunE: withRuntime(func(cmd *cobra.Command, _ []string, rt *runtime) error {
				return database.MigrationStatus(cmd.Context(), rt.db)
			}),
		},
	)
	return cmd
}
