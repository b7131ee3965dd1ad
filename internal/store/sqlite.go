// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Serializes appends with immediate transactions so sequence ids never collide

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultRecordsPerVolume is used when no explicit volume size is configured.
const DefaultRecordsPerVolume = 50

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db               *sql.DB
	path             string
	recordsPerVolume int
	logger           *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
//
// recordsPerVolume controls the derived volume number
// (volume = (sequence_id-1)/recordsPerVolume + 1); values <= 0 fall back
// to DefaultRecordsPerVolume.
func NewSQLiteStore(path string, recordsPerVolume int) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if recordsPerVolume <= 0 {
		recordsPerVolume = DefaultRecordsPerVolume
	}

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// _txlock=immediate makes every write transaction take the write lock
	// up front, so two processes appending concurrently queue on the
	// busy_timeout instead of deadlocking on a lock upgrade.
	db, err := sql.Open("sqlite", path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps the pragmas below effective for every
	// statement this process issues.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		// Appends must be durable before returning to the caller.
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}

	s := &SQLiteStore{
		db:               db,
		path:             path,
		recordsPerVolume: recordsPerVolume,
		logger:           logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path, "records_per_volume", recordsPerVolume)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			sequence_id INTEGER PRIMARY KEY,
			volume      INTEGER NOT NULL,
			theme       TEXT NOT NULL,
			role        TEXT NOT NULL,
			text        TEXT NOT NULL,
			style       TEXT,
			image_file  TEXT,
			is_used     INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL,

			CHECK (role IN ('question', 'answer')),
			CHECK (sequence_id > 0)
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_records_question_unique
			ON records(theme, text) WHERE role = 'question';

		CREATE INDEX IF NOT EXISTS idx_records_theme ON records(theme);
		CREATE INDEX IF NOT EXISTS idx_records_role ON records(role);
		CREATE INDEX IF NOT EXISTS idx_records_used ON records(is_used);
	`

	_, err := s.db.Exec(schema)
	return err
}

// runMigrations applies schema migrations for existing databases.
// These are idempotent - safe to run multiple times.
func (s *SQLiteStore) runMigrations() error {
	// SQLite doesn't support ADD COLUMN IF NOT EXISTS, so we check first
	migrations := []struct {
		check  string // Query to check if migration is needed
		apply  string // Query to apply the migration
		column string // Column name for logging
	}{
		{
			check:  `SELECT 1 FROM pragma_table_info('records') WHERE name = 'style'`,
			apply:  `ALTER TABLE records ADD COLUMN style TEXT`,
			column: "style",
		},
		{
			check:  `SELECT 1 FROM pragma_table_info('records') WHERE name = 'image_file'`,
			apply:  `ALTER TABLE records ADD COLUMN image_file TEXT`,
			column: "image_file",
		},
	}

	for _, m := range migrations {
		var exists int
		err := s.db.QueryRow(m.check).Scan(&exists)
		if err == nil {
			// Column already exists, skip
			continue
		}
		if _, err := s.db.Exec(m.apply); err != nil {
			return fmt.Errorf("adding %s column to records: %w", m.column, err)
		}
		s.logger.Info("applied migration", "column", m.column, "table", "records")
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// Path returns the filesystem path of the database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

// RecordsPerVolume returns the configured volume size.
func (s *SQLiteStore) RecordsPerVolume() int {
	return s.recordsPerVolume
}

// VolumeFor computes the volume a sequence id belongs to.
func (s *SQLiteStore) VolumeFor(sequenceID int64) int {
	return int((sequenceID-1)/int64(s.recordsPerVolume)) + 1
}

// Append assigns the next sequence id and persists the record in a single
// immediate transaction. The id is derived from MAX(sequence_id) rather than
// a separate counter, so the log can never disagree with itself after an
// unclean shutdown. Returns ErrDuplicateQuestion when a question with the
// same (theme, text) pair already exists.
func (s *SQLiteStore) Append(ctx context.Context, rec *Record) (int64, error) {
	if rec.Role != RoleQuestion && rec.Role != RoleAnswer {
		return 0, fmt.Errorf("invalid record role %q", rec.Role)
	}
	if rec.Theme == "" {
		return 0, fmt.Errorf("record theme must not be empty")
	}
	if rec.Text == "" {
		return 0, fmt.Errorf("record text must not be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning append transaction: %w", err)
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence_id), 0) + 1 FROM records`,
	).Scan(&next); err != nil {
		return 0, fmt.Errorf("computing next sequence id: %w", err)
	}

	volume := s.VolumeFor(next)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (sequence_id, volume, theme, role, text, style, image_file, is_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		next,
		volume,
		rec.Theme,
		rec.Role,
		rec.Text,
		nullString(rec.Style),
		nullString(rec.ImageFile),
		boolToInt(rec.Used),
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return 0, ErrDuplicateQuestion
		}
		return 0, fmt.Errorf("inserting record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing append: %w", err)
	}

	rec.SequenceID = next
	rec.Volume = volume

	s.logger.Debug("appended record",
		"sequence_id", next,
		"volume", volume,
		"theme", rec.Theme,
		"role", rec.Role,
	)
	return next, nil
}

// MarkUsed sets the used flag for the given sequence id. Marking an
// already-used record again is a no-op, not an error.
// Returns ErrNotFound if no such record exists.
func (s *SQLiteStore) MarkUsed(ctx context.Context, sequenceID int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE records SET is_used = 1 WHERE sequence_id = ?`, sequenceID)
	if err != nil {
		return fmt.Errorf("marking record used: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("marked record used", "sequence_id", sequenceID)
	return nil
}

// AllRecords returns every record in ascending sequence order.
func (s *SQLiteStore) AllRecords(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence_id, volume, theme, role, text, style, image_file, is_used, created_at
		FROM records
		ORDER BY sequence_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating record rows: %w", err)
	}
	return records, nil
}

// FindByThemeAndText looks up a question record by exact theme and text.
// Matching is case-sensitive; used and unused records both count.
// Returns ErrNotFound when absent.
func (s *SQLiteStore) FindByThemeAndText(ctx context.Context, theme, text string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT sequence_id, volume, theme, role, text, style, image_file, is_used, created_at
		FROM records
		WHERE theme = ? AND text = ? AND role = 'question'
	`, theme, text)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// MaxSequenceID returns the highest assigned sequence id, or 0 for an empty log.
func (s *SQLiteStore) MaxSequenceID(ctx context.Context) (int64, error) {
	var maxID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence_id), 0) FROM records`,
	).Scan(&maxID)
	if err != nil {
		return 0, fmt.Errorf("querying max sequence id: %w", err)
	}
	return maxID, nil
}

// CountRecords returns the total number of records.
func (s *SQLiteStore) CountRecords(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}

// scanner abstracts sql.Row and sql.Rows for scanRecord.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var style, imageFile sql.NullString
	var used int
	var createdAtStr string

	err := row.Scan(
		&rec.SequenceID,
		&rec.Volume,
		&rec.Theme,
		&rec.Role,
		&rec.Text,
		&style,
		&imageFile,
		&used,
		&createdAtStr,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning record row: %w", err)
	}

	rec.Style = style.String
	rec.ImageFile = imageFile.String
	rec.Used = used != 0

	rec.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &rec, nil
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// nullString returns nil for empty strings, otherwise the string itself
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
