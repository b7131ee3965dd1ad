// ABOUTME: Store interface and data types for ask-engine persistence
// ABOUTME: Defines Record, Role and the Store interface for the append-only log

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateQuestion is returned when appending a question whose
// (theme, text) pair already exists in the log, regardless of used state
var ErrDuplicateQuestion = errors.New("question already exists")

// Role constants for record roles
const (
	RoleQuestion = "question"
	RoleAnswer   = "answer"
)

// Record represents one persisted question or answer entry.
// SequenceID is globally unique and strictly increasing in creation order;
// Volume is derived from SequenceID and is never stored independently of it.
type Record struct {
	SequenceID int64
	Volume     int
	Theme      string
	Role       string // "question" or "answer"
	Text       string
	Style      string // visual style hint, carried for downstream image generation
	ImageFile  string // filename of the rendered image, empty until rendered
	Used       bool
	CreatedAt  time.Time
}

// Statistics summarizes the contents of the log.
type Statistics struct {
	TotalRecords    int
	TotalQuestions  int
	TotalAnswers    int
	UsedQuestions   int
	UnusedQuestions int
	PerThemeCounts  map[string]int
	CurrentVolume   int
}

// Store defines the interface for record persistence.
//
// Append and MarkUsed are durable before they return: a crash immediately
// after a successful call neither loses the effect nor reuses a sequence id
// on restart.
type Store interface {
	// Append assigns the next sequence id atomically, persists the record
	// and returns the id. Question records whose (theme, text) pair already
	// exists are rejected with ErrDuplicateQuestion.
	Append(ctx context.Context, rec *Record) (int64, error)

	// MarkUsed sets the used flag for the given id. Marking an already-used
	// record again is a no-op. Returns ErrNotFound for unknown ids.
	MarkUsed(ctx context.Context, sequenceID int64) error

	// AllRecords returns every record in ascending sequence order.
	AllRecords(ctx context.Context) ([]*Record, error)

	// FindByThemeAndText looks up a question record by exact theme and text.
	// Returns ErrNotFound when absent.
	FindByThemeAndText(ctx context.Context, theme, text string) (*Record, error)

	// MaxSequenceID returns the highest assigned sequence id, or 0 for an
	// empty log.
	MaxSequenceID(ctx context.Context) (int64, error)

	// CountRecords returns the total number of records.
	CountRecords(ctx context.Context) (int, error)

	// Statistics returns aggregate counts over the log.
	Statistics(ctx context.Context) (*Statistics, error)

	// Close releases any resources held by the store
	Close() error
}
