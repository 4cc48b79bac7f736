package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"memcoach/internal/database"
)

func newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			defer app.db.Close()

			if err := database.MigrateUp(app.db); err != nil {
				return err
			}
			color.Green("schema is up to date")
			return nil
		},
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			defer app.db.Close()

			if err := database.MigrateDown(app.db); err != nil {
				return err
			}
			color.Yellow("rolled back one migration")
			return nil
		},
	})
	return migrateCmd
}
