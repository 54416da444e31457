package engine

import (
	"context"
	"sync"
)

// Gate is a manual-reset signal. While set, Wait returns immediately; while
// reset, Wait blocks until Set is called or the context is done.
type Gate struct {
	mu  sync.Mutex
	ch  chan struct{}
	set bool
}

// NewGate creates a gate in the given initial state.
func NewGate(set bool) *Gate {
	g := &Gate{ch: make(chan struct{})}
	if set {
		close(g.ch)
		g.set = true
	}
	return g
}

// Set opens the gate and releases all waiters.
func (g *Gate) Set() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.set {
		close(g.ch)
		g.set = true
	}
}

// Reset closes the gate so later waiters block.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.set {
		g.ch = make(chan struct{})
		g.set = false
	}
}

// IsSet reports the current state without blocking.
func (g *Gate) IsSet() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.set
}

// Wait blocks until the gate is set or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.ch
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
