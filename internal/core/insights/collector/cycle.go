package collector

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/atomic"
)

// ErrStaleCycle is returned when a cycle tries to commit after a newer cycle for
// the same key has begun.
var ErrStaleCycle = errors.New("collection cycle superseded by a newer cycle")

// Cycle identifies one collection cycle for a key (store + view).
type Cycle struct {
	Key    string
	ID     uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Context is cancelled when a newer cycle for the same key begins.
func (c *Cycle) Context() context.Context {
	return c.ctx
}

// CycleTracker enforces last-write-wins between overlapping cycles and holds the
// most recently committed state per key.
type CycleTracker[S any] struct {
	seq     *atomic.Uint64
	mu      sync.Mutex
	current map[string]*Cycle
	state   map[string]S
}

// NewCycleTracker creates an empty tracker.
func NewCycleTracker[S any]() *CycleTracker[S] {
	return &CycleTracker[S]{
		seq:     atomic.NewUint64(0),
		current: make(map[string]*Cycle),
		state:   make(map[string]S),
	}
}

// Begin starts a new cycle for key and cancels the one it supersedes.
func (t *CycleTracker[S]) Begin(parent context.Context, key string) *Cycle {
	ctx, cancel := context.WithCancel(parent)
	c := &Cycle{Key: key, ID: t.seq.Inc(), ctx: ctx, cancel: cancel}

	t.mu.Lock()
	prev := t.current[key]
	t.current[key] = c
	t.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
	return c
}

// Commit stores state for the cycle's key if the cycle is still current.
func (t *CycleTracker[S]) Commit(c *Cycle, state S) error {
	defer c.cancel()

	t.mu.Lock()
	defer t.mu.Unlock()

	if cur, ok := t.current[c.Key]; !ok || cur.ID != c.ID {
		return ErrStaleCycle
	}
	t.state[c.Key] = state
	return nil
}

// IsCurrent reports whether c is the latest cycle for its key.
func (t *CycleTracker[S]) IsCurrent(c *Cycle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.current[c.Key]
	return ok && cur.ID == c.ID
}

// Latest returns the last committed state for key.
func (t *CycleTracker[S]) Latest(key string) (S, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.state[key]
	return s, ok
}
