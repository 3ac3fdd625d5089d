package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/PTCGO-Assets/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the ledger schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending ledger migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrations(func(mm *storage.MigrationManager) error {
			if err := mm.Up(); err != nil {
				return err
			}
			cmd.Println("Ledger migrated.")
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every ledger migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrations(func(mm *storage.MigrationManager) error {
			if err := mm.Down(); err != nil {
				return err
			}
			cmd.Println("Ledger rolled back.")
			return nil
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ledger schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrations(func(mm *storage.MigrationManager) error {
			version, dirty, err := mm.Version()
			if err != nil {
				return err
			}
			cmd.Printf("version %d", version)
			if dirty {
				cmd.Print(" (dirty)")
			}
			cmd.Println()
			return nil
		})
	},
}

var migrateStepsCmd = &cobra.Command{
	Use:   "steps N",
	Short: "Apply N ledger migrations, or roll back with a negative N (after --)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil || n == 0 {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return withMigrations(func(mm *storage.MigrationManager) error {
			if err := mm.Steps(n); err != nil {
				return err
			}
			version, _, err := mm.Version()
			if err != nil {
				return err
			}
			cmd.Printf("Ledger at version %d.\n", version)
			return nil
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStepsCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

func withMigrations(fn func(mm *storage.MigrationManager) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mm, err := storage.NewMigrationManager(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer mm.Close()

	return fn(mm)
}
