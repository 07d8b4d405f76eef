// Package singleflight coalesces concurrent loads of the same key.
package singleflight

import (
	"context"
	"sync"
)

// Group runs at most one fn per key at a time. Callers that arrive while a
// call for their key is in flight wait for its result instead of running
// fn again.
//
// The first caller for a key is the leader and runs fn on its own
// goroutine stack. Result fields are written before done is closed, so a
// follower that observes <-done reads the final values. A follower whose
// ctx ends stops waiting; the leader keeps running.
type Group[K comparable, V any] struct {
	mu     sync.Mutex
	flight map[K]*call[V]
}

type call[V any] struct {
	done    chan struct{}
	waiters int
	val     V
	err     error
}

// Do executes fn for key unless a call is already in flight, in which case
// it waits for that call. shared reports whether the result was handed to
// more than one caller.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (v V, shared bool, err error) {
	g.mu.Lock()
	if g.flight == nil {
		g.flight = make(map[K]*call[V])
	}
	if c, ok := g.flight[key]; ok {
		c.waiters++
		g.mu.Unlock()
		select {
		case <-c.done:
			return c.val, true, c.err
		case <-ctx.Done():
			var zero V
			return zero, false, ctx.Err()
		}
	}
	c := &call[V]{done: make(chan struct{})}
	g.flight[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()
	close(c.done)

	g.mu.Lock()
	delete(g.flight, key)
	shared = c.waiters > 0
	g.mu.Unlock()

	return c.val, shared, c.err
}

// InFlight returns the number of keys currently being loaded.
func (g *Group[K, V]) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.flight)
}
