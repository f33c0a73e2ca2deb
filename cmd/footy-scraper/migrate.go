package main

import (
	"github.com/spf13/cobra"

	"github.com/myusername/footballer-scraper/pkg/store"
)

var migrateDownSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the players table.",
	RunE: func(*cobra.Command, []string) error {
		db, err := store.Connect(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		return store.Migrate(db.DB)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back schema migrations.",
	RunE: func(*cobra.Command, []string) error {
		db, err := store.Connect(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		return store.MigrateDown(db.DB, migrateDownSteps)
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
