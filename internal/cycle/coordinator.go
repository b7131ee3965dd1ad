// ABOUTME: Cycle Coordinator running the generation state machine for one cycle
// ABOUTME: Generation calls happen outside the store's write path; failures before the first append leave the log untouched

package cycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/askresearch/ask-engine/internal/dedupe"
	"github.com/askresearch/ask-engine/internal/generate"
	"github.com/askresearch/ask-engine/internal/sequence"
	"github.com/askresearch/ask-engine/internal/store"
	"github.com/askresearch/ask-engine/internal/theme"
)

// ErrThemeExhausted is returned when every generated candidate for the
// selected theme already exists in the log. Recoverable: the caller can
// pick another theme or request more candidates.
var ErrThemeExhausted = errors.New("theme exhausted: all candidates already used")

// DefaultCandidatesPerCycle is how many question candidates are requested
// from the text generator when the caller doesn't configure a count.
const DefaultCandidatesPerCycle = 3

// CompletionFunc runs after the answer is persisted and before the
// question is marked used. Callers use it to run downstream work inline,
// e.g. image generation. A failure aborts the mark-used step, leaving the
// question unused for a later retry.
type CompletionFunc func(ctx context.Context, question, answer *store.Record) error

// Options configures a Coordinator.
type Options struct {
	CandidatesPerCycle int
	Completion         CompletionFunc
	Clock              Clock
}

// Result holds the two records produced by a successful cycle.
type Result struct {
	CycleID  string
	Question *store.Record
	Answer   *store.Record
}

// Report combines log statistics with volume progress for callers.
type Report struct {
	Stats  *store.Statistics
	Volume *sequence.Summary
}

// Coordinator runs generation cycles against a store, a duplicate guard
// and a text generator.
type Coordinator struct {
	store  store.Store
	guard  *dedupe.Guard
	alloc  *sequence.Allocator
	text   generate.TextGenerator
	clock  Clock
	opts   Options
	logger *slog.Logger
}

// New creates a coordinator.
func New(s store.Store, guard *dedupe.Guard, alloc *sequence.Allocator, text generate.TextGenerator, opts Options) (*Coordinator, error) {
	if s == nil || guard == nil || alloc == nil || text == nil {
		return nil, fmt.Errorf("store, guard, allocator and text generator are all required")
	}
	if opts.CandidatesPerCycle <= 0 {
		opts.CandidatesPerCycle = DefaultCandidatesPerCycle
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	return &Coordinator{
		store:  s,
		guard:  guard,
		alloc:  alloc,
		text:   text,
		clock:  opts.Clock,
		opts:   opts,
		logger: slog.Default().With("component", "cycle"),
	}, nil
}

// RunCycle executes exactly one generation cycle for the theme the policy
// selects. On success both a question record and an answer record exist
// and the question is marked used.
//
// Failure semantics: a generation failure before the question is persisted
// leaves the store untouched. If the answer step fails after the question
// was persisted, the question remains as an unused orphan; the duplicate
// guard keeps it from being re-issued and a later cycle may answer the
// theme with different text.
func (c *Coordinator) RunCycle(ctx context.Context, policy theme.Policy) (*Result, error) {
	cycleID := uuid.NewString()
	selected := policy.Next()
	logger := c.logger.With("cycle_id", cycleID, "theme", selected)
	logger.Info("starting cycle")

	// REQUEST_QUESTION_CANDIDATES
	prompt, err := generate.QuestionPrompt(selected, c.opts.CandidatesPerCycle)
	if err != nil {
		return nil, fmt.Errorf("building question prompt: %w", err)
	}
	raw, err := c.text.GenerateText(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("requesting question candidates: %w", err)
	}
	candidates := generate.Candidates(raw)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("requesting question candidates: %w",
			&generate.Error{Op: "text", Err: errors.New("no valid question in response")})
	}

	// FILTER_DUPLICATES
	fresh, err := c.guard.FilterCandidates(ctx, selected, candidates)
	if err != nil {
		return nil, fmt.Errorf("filtering candidates: %w", err)
	}
	if len(fresh) == 0 {
		logger.Warn("all candidates were duplicates", "candidates", len(candidates))
		return nil, fmt.Errorf("%w (theme %q)", ErrThemeExhausted, selected)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ALLOCATE_ID / PERSIST_QUESTION. The store assigns the id atomically;
	// the allocator's prediction is advisory and only logged. Another
	// process may append the same text between filter and persist, so a
	// duplicate here falls through to the next candidate.
	predicted, err := c.alloc.NextSequenceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("predicting sequence id: %w", err)
	}
	logger.Debug("persisting question", "predicted_sequence_id", predicted)

	var question *store.Record
	for _, text := range fresh {
		rec := &store.Record{
			Theme:     selected,
			Role:      store.RoleQuestion,
			Text:      text,
			CreatedAt: c.clock.Now(),
		}
		if _, err := c.store.Append(ctx, rec); err != nil {
			if errors.Is(err, store.ErrDuplicateQuestion) {
				logger.Debug("candidate raced with another writer", "text", text)
				continue
			}
			return nil, fmt.Errorf("persisting question: %w", err)
		}
		question = rec
		break
	}
	if question == nil {
		return nil, fmt.Errorf("%w (theme %q)", ErrThemeExhausted, selected)
	}
	logger.Info("question persisted", "sequence_id", question.SequenceID, "volume", question.Volume)

	// REQUEST_ANSWER
	answerPrompt, err := generate.AnswerPrompt(selected, question.Text)
	if err != nil {
		return nil, fmt.Errorf("building answer prompt: %w", err)
	}
	rawAnswer, err := c.text.GenerateText(ctx, answerPrompt)
	if err != nil {
		return nil, fmt.Errorf("requesting answer: %w", err)
	}
	answerText := generate.CleanAnswer(rawAnswer)
	if answerText == "" {
		return nil, fmt.Errorf("requesting answer: %w",
			&generate.Error{Op: "text", Err: errors.New("empty answer in response")})
	}

	// PERSIST_ANSWER
	answer := &store.Record{
		Theme:     selected,
		Role:      store.RoleAnswer,
		Text:      answerText,
		CreatedAt: c.clock.Now(),
	}
	if _, err := c.store.Append(ctx, answer); err != nil {
		return nil, fmt.Errorf("persisting answer: %w", err)
	}
	logger.Info("answer persisted", "sequence_id", answer.SequenceID)

	result := &Result{CycleID: cycleID, Question: question, Answer: answer}

	// Optional downstream work before the question is committed as used
	if c.opts.Completion != nil {
		if err := c.opts.Completion(ctx, question, answer); err != nil {
			return nil, fmt.Errorf("completion step: %w", err)
		}
	}

	// MARK_QUESTION_USED
	if err := c.store.MarkUsed(ctx, question.SequenceID); err != nil {
		return nil, fmt.Errorf("marking question used: %w", err)
	}
	question.Used = true

	logger.Info("cycle complete",
		"question_id", question.SequenceID,
		"answer_id", answer.SequenceID,
	)
	return result, nil
}

// Statistics reports aggregate log statistics together with volume
// progress.
func (c *Coordinator) Statistics(ctx context.Context) (*Report, error) {
	stats, err := c.store.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading statistics: %w", err)
	}
	summary, err := c.alloc.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading volume summary: %w", err)
	}
	return &Report{Stats: stats, Volume: summary}, nil
}
