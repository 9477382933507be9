package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database schema migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, app, pool, err := setupApp(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := app.Migrations().Run(cmd.Context()); err != nil {
				return fmt.Errorf("applying migrations: %w", err)
			}
			return writeJSON(map[string]string{"command": "migrate up", "status": "ok"})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration of every module",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, app, pool, err := setupApp(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := app.Migrations().Rollback(cmd.Context()); err != nil {
				return fmt.Errorf("rolling back migrations: %w", err)
			}
			return writeJSON(map[string]string{"command": "migrate down", "status": "ok"})
		},
	})
	return cmd
}
