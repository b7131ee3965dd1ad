package dedupe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askresearch/ask-engine/internal/store"
)

// fakeLookup records lookups and answers from a fixed set.
type fakeLookup struct {
	existing map[string]bool
	calls    int
}

func (f *fakeLookup) FindByThemeAndText(ctx context.Context, theme, text string) (*store.Record, error) {
	f.calls++
	if f.existing[theme+"|"+text] {
		return &store.Record{Theme: theme, Text: text, Role: store.RoleQuestion}, nil
	}
	return nil, store.ErrNotFound
}

func TestGuard_IsDuplicate(t *testing.T) {
	lookup := &fakeLookup{existing: map[string]bool{
		"design|How do buildings breathe?": true,
	}}
	guard := NewGuard(lookup)
	ctx := context.Background()

	dup, err := guard.IsDuplicate(ctx, "design", "How do buildings breathe?")
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = guard.IsDuplicate(ctx, "design", "What makes a wall honest?")
	require.NoError(t, err)
	assert.False(t, dup)

	// Case matters
	dup, err = guard.IsDuplicate(ctx, "design", "how do buildings breathe?")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestGuard_CachesPositiveHits(t *testing.T) {
	lookup := &fakeLookup{existing: map[string]bool{
		"design|How do buildings breathe?": true,
	}}
	guard := NewGuard(lookup)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		dup, err := guard.IsDuplicate(ctx, "design", "How do buildings breathe?")
		require.NoError(t, err)
		require.True(t, dup)
	}
	assert.Equal(t, 1, lookup.calls, "repeated checks should hit the cache")

	// Negative results are never cached: the store may gain the record
	// from another process between checks
	for i := 0; i < 2; i++ {
		dup, err := guard.IsDuplicate(ctx, "design", "What makes a wall honest?")
		require.NoError(t, err)
		require.False(t, dup)
	}
	assert.Equal(t, 3, lookup.calls)
}

func TestGuard_FilterCandidates(t *testing.T) {
	lookup := &fakeLookup{existing: map[string]bool{
		"design|How do buildings breathe?": true,
		"design|Why do atriums feel calm?": true,
	}}
	guard := NewGuard(lookup)
	ctx := context.Background()

	fresh, err := guard.FilterCandidates(ctx, "design", []string{
		"How do buildings breathe?",
		"What makes a wall honest?",
		"Why do atriums feel calm?",
		"How should thresholds behave?",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"What makes a wall honest?", "How should thresholds behave?"}, fresh)
}

func TestGuard_FilterCandidates_AllDuplicates(t *testing.T) {
	lookup := &fakeLookup{existing: map[string]bool{
		"design|How do buildings breathe?": true,
	}}
	guard := NewGuard(lookup)

	fresh, err := guard.FilterCandidates(context.Background(), "design", []string{"How do buildings breathe?"})
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestCache_EvictsOldest(t *testing.T) {
	c := newCache(2)

	c.mark("a")
	c.mark("b")
	c.mark("c")

	assert.Equal(t, 2, c.len())
	assert.False(t, c.check("a"), "oldest entry should have been evicted")
	assert.True(t, c.check("b"))
	assert.True(t, c.check("c"))
}
