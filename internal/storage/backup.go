package storage

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

const backupExt = ".db"

// BackupInfo describes one ledger snapshot on disk.
type BackupInfo struct {
	Path     string
	Name     string
	Size     int64
	ModTime  time.Time
	Checksum string
}

// BackupDir is the default snapshot directory for a ledger at dbPath.
func BackupDir(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "backups")
}

// Backup snapshots the ledger into dir with VACUUM INTO and verifies the copy.
// An empty name produces a timestamped one. Existing snapshots are never
// overwritten.
func (db *DB) Backup(ctx context.Context, dir, name string) (*BackupInfo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	if name == "" {
		name = "ledger_" + time.Now().UTC().Format("20060102_150405")
	}
	path := filepath.Join(dir, strings.TrimSuffix(name, backupExt)+backupExt)

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("backup already exists: %s", path)
	}

	if _, err := db.conn.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return nil, fmt.Errorf("failed to snapshot ledger: %w", err)
	}

	if err := VerifyBackup(ctx, path); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("backup verification failed: %w", err)
	}

	return describeBackup(path)
}

// VerifyBackup opens a snapshot and runs the sqlite integrity check on it.
func VerifyBackup(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	conn, err := sql.Open("sqlite", filepath.ToSlash(path))
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer conn.Close()

	var result string
	if err := conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("failed to check backup: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}

	var runs int
	if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&runs); err != nil {
		return fmt.Errorf("backup is not a ledger: %w", err)
	}
	return nil
}

// ListBackups returns the snapshots in dir, newest first.
func ListBackups(dir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != backupExt {
			continue
		}
		info, err := describeBackup(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		backups = append(backups, *info)
	}

	sort.Slice(backups, func(i, j int) bool {
		if backups[i].ModTime.Equal(backups[j].ModTime) {
			return backups[i].Name > backups[j].Name
		}
		return backups[i].ModTime.After(backups[j].ModTime)
	})
	return backups, nil
}

func describeBackup(path string) (*BackupInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	checksum, err := fileChecksum(path)
	if err != nil {
		return nil, err
	}
	return &BackupInfo{
		Path:     path,
		Name:     filepath.Base(path),
		Size:     stat.Size(),
		ModTime:  stat.ModTime(),
		Checksum: checksum,
	}, nil
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
