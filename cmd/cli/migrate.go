package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ztrans-apps/crm-sub001/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		if err := postgres.MigrateUp(cfg.Database.URL); err != nil {
			return err
		}
		fmt.Println("✓ migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		if err := postgres.MigrateDown(cfg.Database.URL); err != nil {
			return err
		}
		fmt.Println("✓ migrations rolled back")
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		version, dirty, err := postgres.MigrationVersion(cfg.Database.URL)
		if err != nil {
			return err
		}
		fmt.Printf("version: %d\n", version)
		if dirty {
			fmt.Println("warning: the schema is dirty, fix it and force the version")
		}
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}
