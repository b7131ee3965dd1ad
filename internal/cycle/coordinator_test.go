package cycle

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askresearch/ask-engine/internal/dedupe"
	"github.com/askresearch/ask-engine/internal/generate"
	"github.com/askresearch/ask-engine/internal/sequence"
	"github.com/askresearch/ask-engine/internal/store"
	"github.com/askresearch/ask-engine/internal/theme"
)

// fakeGenerator returns scripted responses in call order.
type fakeGenerator struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeGenerator) GenerateText(ctx context.Context, p generate.Prompt) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("unexpected generation call")
}

// fixedClock always reports the same instant.
type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func setupCoordinator(t *testing.T, gen generate.TextGenerator, opts Options) (*Coordinator, *store.SQLiteStore) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.NewSQLiteStore(dbPath, 50)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	guard := dedupe.NewGuard(s)
	alloc, err := sequence.NewAllocator(s, 50)
	require.NoError(t, err)

	coord, err := New(s, guard, alloc, gen, opts)
	require.NoError(t, err)
	return coord, s
}

func TestRunCycle_EmptyStore(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		"How can cities grow without sprawling outward?",
		"Vertical density and transit corridors absorb growth.",
	}}
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	coord, s := setupCoordinator(t, gen, Options{Clock: fixedClock{now}})
	ctx := context.Background()

	result, err := coord.RunCycle(ctx, theme.Fixed("sustainability"))
	require.NoError(t, err)

	assert.NotEmpty(t, result.CycleID)
	assert.Equal(t, int64(1), result.Question.SequenceID)
	assert.Equal(t, int64(2), result.Answer.SequenceID)
	assert.Equal(t, "sustainability", result.Question.Theme)
	assert.Equal(t, "sustainability", result.Answer.Theme)
	assert.Equal(t, now, result.Question.CreatedAt)

	records, err := s.AllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].Used, "question is marked used after a full cycle")
	assert.False(t, records[1].Used)
}

func TestRunCycle_AllCandidatesDuplicate(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		"How do buildings breathe?",
	}}
	coord, s := setupCoordinator(t, gen, Options{})
	ctx := context.Background()

	_, err := s.Append(ctx, &store.Record{
		Theme:     "design",
		Role:      store.RoleQuestion,
		Text:      "How do buildings breathe?",
		Used:      true,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = coord.RunCycle(ctx, theme.Fixed("design"))
	assert.ErrorIs(t, err, ErrThemeExhausted)

	// Nothing new was persisted
	count, err := s.CountRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunCycle_DuplicateFilterIgnoresUsedState(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		"How do buildings breathe?",
	}}
	coord, s := setupCoordinator(t, gen, Options{})
	ctx := context.Background()

	// Unused question still blocks re-issue
	_, err := s.Append(ctx, &store.Record{
		Theme:     "design",
		Role:      store.RoleQuestion,
		Text:      "How do buildings breathe?",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = coord.RunCycle(ctx, theme.Fixed("design"))
	assert.ErrorIs(t, err, ErrThemeExhausted)
}

func TestRunCycle_QuestionGenerationFails(t *testing.T) {
	genErr := &generate.Error{Op: "text", Err: errors.New("quota exceeded")}
	gen := &fakeGenerator{errs: []error{genErr}}
	coord, s := setupCoordinator(t, gen, Options{})
	ctx := context.Background()

	_, err := coord.RunCycle(ctx, theme.Fixed("design"))
	require.Error(t, err)

	var ge *generate.Error
	assert.ErrorAs(t, err, &ge)

	// Failure before the first append leaves the store untouched
	count, err := s.CountRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRunCycle_NoValidCandidates(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"I cannot help with that."}}
	coord, s := setupCoordinator(t, gen, Options{})

	_, err := coord.RunCycle(context.Background(), theme.Fixed("design"))
	require.Error(t, err)

	var ge *generate.Error
	assert.ErrorAs(t, err, &ge)

	count, err := s.CountRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRunCycle_AnswerFailureLeavesUnusedQuestion(t *testing.T) {
	genErr := &generate.Error{Op: "text", Err: errors.New("timeout")}
	gen := &fakeGenerator{
		responses: []string{"What holds a cantilever in the air?"},
		errs:      []error{nil, genErr},
	}
	coord, s := setupCoordinator(t, gen, Options{})
	ctx := context.Background()

	_, err := coord.RunCycle(ctx, theme.Fixed("engineering"))
	require.Error(t, err)

	// The question survives as an unused orphan; no answer exists
	records, err := s.AllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, store.RoleQuestion, records[0].Role)
	assert.False(t, records[0].Used)
}

func TestRunCycle_SkipsDuplicateToNextCandidate(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		"How do buildings breathe?\nWhat makes a wall honest?",
		"Material truth and visible structure.",
	}}
	coord, s := setupCoordinator(t, gen, Options{})
	ctx := context.Background()

	_, err := s.Append(ctx, &store.Record{
		Theme:     "design",
		Role:      store.RoleQuestion,
		Text:      "How do buildings breathe?",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	result, err := coord.RunCycle(ctx, theme.Fixed("design"))
	require.NoError(t, err)
	assert.Equal(t, "What makes a wall honest?", result.Question.Text)
}

func TestRunCycle_CompletionFailureSkipsMarkUsed(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		"How can cities grow without sprawling outward?",
		"Vertical density and transit corridors absorb growth.",
	}}
	completionErr := errors.New("render failed")
	opts := Options{
		Completion: func(ctx context.Context, q, a *store.Record) error {
			return completionErr
		},
	}
	coord, s := setupCoordinator(t, gen, opts)
	ctx := context.Background()

	_, err := coord.RunCycle(ctx, theme.Fixed("urbanism"))
	assert.ErrorIs(t, err, completionErr)

	records, err := s.AllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.False(t, records[0].Used, "question stays unused when completion fails")
}

func TestRunCycle_CompletionSeesBothRecords(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		"How can cities grow without sprawling outward?",
		"Vertical density and transit corridors absorb growth.",
	}}
	var gotQuestion, gotAnswer *store.Record
	opts := Options{
		Completion: func(ctx context.Context, q, a *store.Record) error {
			gotQuestion, gotAnswer = q, a
			return nil
		},
	}
	coord, _ := setupCoordinator(t, gen, opts)

	result, err := coord.RunCycle(context.Background(), theme.Fixed("urbanism"))
	require.NoError(t, err)
	assert.Equal(t, result.Question, gotQuestion)
	assert.Equal(t, result.Answer, gotAnswer)
}

func TestCoordinator_Statistics(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		"How can cities grow without sprawling outward?",
		"Vertical density and transit corridors absorb growth.",
	}}
	coord, _ := setupCoordinator(t, gen, Options{})
	ctx := context.Background()

	_, err := coord.RunCycle(ctx, theme.Fixed("urbanism"))
	require.NoError(t, err)

	report, err := coord.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Stats.TotalRecords)
	assert.Equal(t, 1, report.Stats.TotalQuestions)
	assert.Equal(t, 1, report.Stats.UsedQuestions)
	assert.Equal(t, 1, report.Volume.Volume)
	assert.Equal(t, 2, report.Volume.RecordsInVolume)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, nil, nil, nil, Options{})
	assert.Error(t, err)
}
