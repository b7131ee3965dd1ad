// ABOUTME: Duplicate Guard deciding whether a candidate question was already used
// ABOUTME: Delegates to the store's exact-match lookup, with a positive-hit cache

package dedupe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/askresearch/ask-engine/internal/store"
)

// DefaultCacheSize bounds the in-process duplicate cache.
const DefaultCacheSize = 4096

// Lookup is the store capability the guard needs.
type Lookup interface {
	FindByThemeAndText(ctx context.Context, theme, text string) (*store.Record, error)
}

// Guard answers whether a candidate (theme, text) pair already exists in the
// record log, regardless of its used state.
type Guard struct {
	lookup Lookup
	known  *cache
	logger *slog.Logger
}

// NewGuard creates a guard over the given lookup.
func NewGuard(lookup Lookup) *Guard {
	return &Guard{
		lookup: lookup,
		known:  newCache(DefaultCacheSize),
		logger: slog.Default().With("component", "dedupe"),
	}
}

func key(theme, text string) string {
	return theme + "\x00" + text
}

// IsDuplicate reports whether a question with this exact theme and text
// already exists. The equality test is an exact, case-sensitive string
// match; no fuzzy or semantic matching is attempted.
func (g *Guard) IsDuplicate(ctx context.Context, theme, text string) (bool, error) {
	if g.known.check(key(theme, text)) {
		return true, nil
	}

	_, err := g.lookup.FindByThemeAndText(ctx, theme, text)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking for duplicate: %w", err)
	}

	g.known.mark(key(theme, text))
	return true, nil
}

// FilterCandidates returns the candidates not already present for the
// theme, preserving input order. An empty result means every candidate was
// a duplicate; the caller decides what to do about that - the guard never
// invents replacement text.
func (g *Guard) FilterCandidates(ctx context.Context, theme string, candidates []string) ([]string, error) {
	fresh := make([]string, 0, len(candidates))
	for _, text := range candidates {
		dup, err := g.IsDuplicate(ctx, theme, text)
		if err != nil {
			return nil, err
		}
		if dup {
			g.logger.Debug("filtered duplicate candidate", "theme", theme, "text", text)
			continue
		}
		fresh = append(fresh, text)
	}
	return fresh, nil
}
