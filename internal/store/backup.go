// ABOUTME: Backup and restore operations for the record log database
// ABOUTME: Creates timestamped snapshots with integrity hashes and retention pruning

package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Backup retention defaults, overridable via BackupOptions.
const (
	DefaultMaxBackups    = 100
	DefaultRetentionDays = 30
)

const backupTimeFormat = "20060102_150405"

// BackupOptions configures the backup manager.
type BackupOptions struct {
	Dir           string // backup directory, created if missing
	MaxBackups    int    // keep at most this many backups (0 = default)
	RetentionDays int    // delete backups older than this (0 = default)
}

// BackupInfo describes one backup snapshot on disk.
type BackupInfo struct {
	ID        string
	Path      string
	Size      int64
	SHA256    string
	CreatedAt time.Time
}

// BackupManager creates and restores snapshots of a store's database file.
// Snapshots are taken with VACUUM INTO so a live WAL database is captured
// consistently.
type BackupManager struct {
	store  *SQLiteStore
	opts   BackupOptions
	logger *slog.Logger
}

// NewBackupManager creates a backup manager for the given store.
func NewBackupManager(s *SQLiteStore, opts BackupOptions) *BackupManager {
	if opts.Dir == "" {
		opts.Dir = "backups"
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = DefaultMaxBackups
	}
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = DefaultRetentionDays
	}
	return &BackupManager{
		store:  s,
		opts:   opts,
		logger: slog.Default().With("component", "backup"),
	}
}

// prefix returns the backup filename prefix for the managed database.
func (m *BackupManager) prefix() string {
	return filepath.Base(m.store.Path()) + ".backup_"
}

// Create writes a timestamped snapshot of the database into the backup
// directory, records its SHA-256 alongside it, and prunes old backups
// according to the retention policy.
func (m *BackupManager) Create(ctx context.Context) (*BackupInfo, error) {
	if err := os.MkdirAll(m.opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	name := m.prefix() + time.Now().UTC().Format(backupTimeFormat)
	dest := filepath.Join(m.opts.Dir, name)

	// VACUUM INTO fails if the destination exists
	if _, err := os.Stat(dest); err == nil {
		return nil, fmt.Errorf("backup destination already exists: %s", dest)
	}

	if _, err := m.store.db.ExecContext(ctx, `VACUUM INTO ?`, dest); err != nil {
		return nil, fmt.Errorf("snapshotting database: %w", err)
	}

	sum, size, err := hashFile(dest)
	if err != nil {
		return nil, fmt.Errorf("hashing backup: %w", err)
	}
	if err := os.WriteFile(dest+".sha256", []byte(sum+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("writing backup hash: %w", err)
	}

	info := &BackupInfo{
		ID:        uuid.NewString(),
		Path:      dest,
		Size:      size,
		SHA256:    sum,
		CreatedAt: time.Now().UTC(),
	}

	if err := m.prune(); err != nil {
		m.logger.Warn("pruning old backups failed", "error", err)
	}

	m.logger.Info("created backup", "path", dest, "size", size)
	return info, nil
}

// List returns all backups for the managed database, newest first.
func (m *BackupManager) List() ([]*BackupInfo, error) {
	entries, err := os.ReadDir(m.opts.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []*BackupInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, m.prefix()) || strings.HasSuffix(name, ".sha256") {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		stamp := strings.TrimPrefix(name, m.prefix())
		createdAt, err := time.Parse(backupTimeFormat, stamp)
		if err != nil {
			// Not one of ours
			continue
		}
		backups = append(backups, &BackupInfo{
			Path:      filepath.Join(m.opts.Dir, name),
			Size:      fi.Size(),
			CreatedAt: createdAt,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Verify recomputes the SHA-256 of a backup file and compares it to the
// recorded hash. Backups without a recorded hash fail verification.
func (m *BackupManager) Verify(path string) error {
	recorded, err := os.ReadFile(path + ".sha256")
	if err != nil {
		return fmt.Errorf("reading recorded hash: %w", err)
	}

	sum, _, err := hashFile(path)
	if err != nil {
		return fmt.Errorf("hashing backup: %w", err)
	}

	if sum != strings.TrimSpace(string(recorded)) {
		return fmt.Errorf("backup %s failed integrity check", path)
	}
	return nil
}

// Restore replaces the database file with a verified backup.
// The store must be closed before calling Restore; the caller reopens it
// afterwards.
func Restore(backupPath, dbPath string) error {
	recorded, err := os.ReadFile(backupPath + ".sha256")
	if err == nil {
		sum, _, hashErr := hashFile(backupPath)
		if hashErr != nil {
			return fmt.Errorf("hashing backup: %w", hashErr)
		}
		if sum != strings.TrimSpace(string(recorded)) {
			return fmt.Errorf("backup %s failed integrity check", backupPath)
		}
	}

	src, err := os.Open(backupPath)
	if err != nil {
		return fmt.Errorf("opening backup: %w", err)
	}
	defer src.Close()

	// Write to a temp file in the target directory, then rename over the
	// database so a crash mid-restore cannot leave a half-written file.
	tmp, err := os.CreateTemp(filepath.Dir(dbPath), ".restore-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("copying backup: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing restored file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing restored file: %w", err)
	}

	// Stale WAL and SHM files would shadow the restored data.
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")

	if err := os.Rename(tmpPath, dbPath); err != nil {
		return fmt.Errorf("replacing database: %w", err)
	}
	return nil
}

// prune enforces the retention policy: drop backups beyond MaxBackups and
// backups older than RetentionDays.
func (m *BackupManager) prune() error {
	backups, err := m.List()
	if err != nil {
		return err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -m.opts.RetentionDays)
	for i, b := range backups {
		if i < m.opts.MaxBackups && !b.CreatedAt.Before(cutoff) {
			continue
		}
		if err := os.Remove(b.Path); err != nil {
			return fmt.Errorf("removing old backup: %w", err)
		}
		os.Remove(b.Path + ".sha256")
		m.logger.Debug("pruned backup", "path", b.Path)
	}
	return nil
}

// hashFile returns the hex SHA-256 and size of a file.
func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
