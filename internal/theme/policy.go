// ABOUTME: Theme selection policies injected into the cycle coordinator
// ABOUTME: Round-robin, random and fixed-list strategies over a theme set

package theme

import (
	"fmt"
	"math/rand"
	"sync"
)

// Policy selects the theme for the next generation cycle.
type Policy interface {
	Next() string
}

// RoundRobin cycles through a theme list in order, wrapping at the end.
// Safe for concurrent use.
type RoundRobin struct {
	mu     sync.Mutex
	themes []string
	cursor int
}

// NewRoundRobin creates a round-robin policy. An empty list falls back to
// the built-in catalog.
func NewRoundRobin(themes []string) (*RoundRobin, error) {
	if len(themes) == 0 {
		themes = Catalog()
	}
	if len(themes) == 0 {
		return nil, fmt.Errorf("no themes to select from")
	}
	cp := make([]string, len(themes))
	copy(cp, themes)
	return &RoundRobin{themes: cp}, nil
}

// Next returns the next theme in rotation.
func (r *RoundRobin) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.themes[r.cursor]
	r.cursor = (r.cursor + 1) % len(r.themes)
	return t
}

// Random selects themes uniformly at random from a theme list.
// Safe for concurrent use.
type Random struct {
	mu     sync.Mutex
	themes []string
	rng    *rand.Rand
}

// NewRandom creates a random policy. A nil rng gets a time-seeded one; an
// empty list falls back to the built-in catalog.
func NewRandom(themes []string, rng *rand.Rand) (*Random, error) {
	if len(themes) == 0 {
		themes = Catalog()
	}
	if len(themes) == 0 {
		return nil, fmt.Errorf("no themes to select from")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	cp := make([]string, len(themes))
	copy(cp, themes)
	return &Random{themes: cp, rng: rng}, nil
}

// Next returns a randomly selected theme.
func (r *Random) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.themes[r.rng.Intn(len(r.themes))]
}

// Fixed always returns the same theme. Useful for single-theme runs and
// tests.
type Fixed string

// Next returns the fixed theme.
func (f Fixed) Next() string { return string(f) }
