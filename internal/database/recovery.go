package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// RecoveryOutcome is the result of checking a database file before opening it.
type RecoveryOutcome int

const (
	// RecoveryHealthy means the file was absent or passed its integrity check.
	RecoveryHealthy RecoveryOutcome = iota
	// RecoveryRestored means the file was replaced by the newest valid backup.
	RecoveryRestored
	// RecoveryFailed means the file is damaged and no backup could replace it.
	RecoveryFailed
)

func (o RecoveryOutcome) String() string {
	switch o {
	case RecoveryHealthy:
		return "healthy"
	case RecoveryRestored:
		return "restored"
	case RecoveryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Recovery reports what Recover did.
type Recovery struct {
	Outcome RecoveryOutcome
	// Problem is the integrity failure that triggered a restore, if any.
	Problem string
	// Backup is the file that was restored.
	Backup string
	// Quarantined is where the damaged file was moved.
	Quarantined string
}

// ErrNoValidBackup is returned when a damaged database has no usable backup.
var ErrNoValidBackup = errors.New("no valid backup found")

// Recover checks the database at dbPath and, when it fails SQLite's
// integrity check, moves it aside and restores the newest backup in
// backupDir that passes the same check. A missing file is healthy.
func Recover(ctx context.Context, dbPath, backupDir string, logger *slog.Logger) (*Recovery, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "recovery", "path", dbPath)

	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		return &Recovery{Outcome: RecoveryHealthy}, nil
	}

	problem := checkIntegrity(ctx, dbPath)
	if problem == nil {
		logger.Debug("database integrity verified")
		return &Recovery{Outcome: RecoveryHealthy}, nil
	}

	rec := &Recovery{Outcome: RecoveryFailed, Problem: problem.Error()}
	logger.Warn("database integrity check failed", "error", problem)

	if backupDir == "" {
		return rec, fmt.Errorf("database damaged and no backup directory configured: %w", problem)
	}

	backup, err := newestValidBackup(ctx, backupDir, logger)
	if err != nil {
		return rec, err
	}

	rec.Quarantined = dbPath + ".corrupted." + time.Now().Format("20060102-150405")
	if err := moveFile(dbPath, rec.Quarantined); err != nil {
		return rec, fmt.Errorf("quarantining damaged database: %w", err)
	}
	_ = os.Remove(dbPath + "-wal")
	_ = os.Remove(dbPath + "-shm")

	if err := copyFile(backup, dbPath); err != nil {
		return rec, fmt.Errorf("restoring %s: %w", backup, err)
	}

	rec.Outcome = RecoveryRestored
	rec.Backup = backup
	logger.Warn("database restored from backup", "backup", backup, "quarantined", rec.Quarantined)
	return rec, nil
}

// checkIntegrity returns nil when PRAGMA integrity_check reports ok.
func checkIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := db.QueryContext(ctx, "PRAGMA integrity_check")
	if err != nil {
		return fmt.Errorf("running integrity check: %w", err)
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var result string
		if err := rows.Scan(&result); err != nil {
			return fmt.Errorf("scanning integrity result: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading integrity results: %w", err)
	}

	if len(results) == 1 && results[0] == "ok" {
		return nil
	}
	return fmt.Errorf("integrity check failed: %s", strings.Join(results, "; "))
}

// newestValidBackup returns the most recently modified *.db file in dir that
// passes the integrity check.
func newestValidBackup(ctx context.Context, dir string, logger *slog.Logger) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading backup directory: %w", err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{filepath.Join(dir, entry.Name()), info.ModTime()})
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		return b.modTime.Compare(a.modTime)
	})

	for _, c := range candidates {
		if err := checkIntegrity(ctx, c.path); err != nil {
			logger.Debug("skipping damaged backup", "backup", c.path, "error", err)
			continue
		}
		return c.path, nil
	}
	return "", ErrNoValidBackup
}

// moveFile renames src to dst, copying across filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stating source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying data: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("syncing destination: %w", err)
	}
	return out.Close()
}
