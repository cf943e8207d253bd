package main

import (
	"errors"
	"fmt"

	"budget/internal/storage"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply SQLite schema migrations and print the version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if appConfig.DataBackend != "sqlite" {
			return errors.New("migrate needs the sqlite backend")
		}
		if err := storage.RunMigrations(appConfig.SQLiteDBPath); err != nil {
			return err
		}
		version, dirty, err := storage.MigrationVersion(appConfig.SQLiteDBPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
