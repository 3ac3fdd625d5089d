package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/PTCGO-Assets/internal/storage"
)

var backupDir string

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and back up the asset ledger",
}

var ledgerRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List the most recent pipeline runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withLedgerDB(func(db *storage.DB, _ string) error {
			runs, err := storage.NewLedger(db).RecentRuns(cmd.Context(), 20)
			if err != nil {
				return err
			}
			for _, run := range runs {
				cmd.Printf("%s  %-18s %-9s %s", run.ID, run.Task, run.Status, run.StartedAt.Format("2006-01-02 15:04:05"))
				if run.Error != "" {
					cmd.Printf("  %s", run.Error)
				}
				cmd.Println()
			}
			return nil
		})
	},
}

var ledgerBackupCmd = &cobra.Command{
	Use:   "backup [name]",
	Short: "Snapshot the ledger database",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var name string
		if len(args) == 1 {
			name = args[0]
		}
		return withLedgerDB(func(db *storage.DB, path string) error {
			info, err := db.Backup(cmd.Context(), ledgerBackupDir(path), name)
			if err != nil {
				return err
			}
			cmd.Printf("Backup written to %s (%d bytes, blake2b %s)\n", info.Path, info.Size, info.Checksum)
			return nil
		})
	},
}

var ledgerBackupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List ledger snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		backups, err := storage.ListBackups(ledgerBackupDir(cfg.Ledger.Path))
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			cmd.Println("No backups.")
			return nil
		}
		for _, b := range backups {
			cmd.Printf("%-32s %10d bytes  %s\n", b.Name, b.Size, b.ModTime.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	ledgerCmd.PersistentFlags().StringVar(&backupDir, "backup-dir", "", "snapshot directory (defaults to backups/ next to the ledger)")
	ledgerCmd.AddCommand(ledgerRunsCmd, ledgerBackupCmd, ledgerBackupsCmd)
	rootCmd.AddCommand(ledgerCmd)
}

func ledgerBackupDir(dbPath string) string {
	if backupDir != "" {
		return backupDir
	}
	return storage.BackupDir(dbPath)
}

func withLedgerDB(fn func(db *storage.DB, path string) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Ledger.Enabled {
		return errors.New("the ledger is disabled")
	}

	db, err := storage.Open(storage.DefaultConfig(cfg.Ledger.Path))
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(db, cfg.Ledger.Path)
}
