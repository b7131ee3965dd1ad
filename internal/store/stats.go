// ABOUTME: Aggregate statistics and CSV export over the record log
// ABOUTME: Read-only queries used by the stats and export commands

package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Statistics returns aggregate counts over the log: totals by role,
// used/unused question counts, per-theme question counts and the volume the
// most recent record belongs to (the configured default volume when empty).
func (s *SQLiteStore) Statistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{
		PerThemeCounts: make(map[string]int),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN role = 'question' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN role = 'answer' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN role = 'question' AND is_used = 1 THEN 1 ELSE 0 END), 0)
		FROM records
	`).Scan(&stats.TotalRecords, &stats.TotalQuestions, &stats.TotalAnswers, &stats.UsedQuestions)
	if err != nil {
		return nil, fmt.Errorf("querying totals: %w", err)
	}
	stats.UnusedQuestions = stats.TotalQuestions - stats.UsedQuestions

	rows, err := s.db.QueryContext(ctx, `
		SELECT theme, COUNT(*)
		FROM records
		WHERE role = 'question'
		GROUP BY theme
		ORDER BY theme
	`)
	if err != nil {
		return nil, fmt.Errorf("querying per-theme counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var theme string
		var count int
		if err := rows.Scan(&theme, &count); err != nil {
			return nil, fmt.Errorf("scanning theme count: %w", err)
		}
		stats.PerThemeCounts[theme] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating theme counts: %w", err)
	}

	maxID, err := s.MaxSequenceID(ctx)
	if err != nil {
		return nil, err
	}
	if maxID == 0 {
		stats.CurrentVolume = 1
	} else {
		stats.CurrentVolume = s.VolumeFor(maxID)
	}

	return stats, nil
}

// ExportQuestions writes every question record to w as CSV with a header
// row. Intended for handing the backlog to downstream tooling.
func (s *SQLiteStore) ExportQuestions(ctx context.Context, w io.Writer) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence_id, volume, theme, text, is_used, created_at
		FROM records
		WHERE role = 'question'
		ORDER BY sequence_id ASC
	`)
	if err != nil {
		return fmt.Errorf("querying questions for export: %w", err)
	}
	defer rows.Close()

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"sequence_id", "volume", "theme", "question", "is_used", "created_at"}); err != nil {
		return fmt.Errorf("writing export header: %w", err)
	}

	exported := 0
	for rows.Next() {
		var seq int64
		var volume int
		var theme, text, createdAt string
		var used int
		if err := rows.Scan(&seq, &volume, &theme, &text, &used, &createdAt); err != nil {
			return fmt.Errorf("scanning question for export: %w", err)
		}
		record := []string{
			strconv.FormatInt(seq, 10),
			strconv.Itoa(volume),
			theme,
			text,
			strconv.FormatBool(used != 0),
			createdAt,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing export row: %w", err)
		}
		exported++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating questions for export: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing export: %w", err)
	}

	s.logger.Info("exported questions", "count", exported)
	return nil
}
