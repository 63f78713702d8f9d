// Package syncx holds small synchronization helpers shared across the
// scan loop and the overlay server.
package syncx

import "sync"

// RWGuard couples a value with the RWMutex protecting it, so the value
// is only reachable through the lock. T should be a value type; Get
// hands out copies.
type RWGuard[T any] struct {
	mu    sync.RWMutex
	value T
}

// NewGuard returns a guard initialized to v.
func NewGuard[T any](v T) *RWGuard[T] {
	return &RWGuard[T]{value: v}
}

// Get returns a copy of the guarded value.
func (g *RWGuard[T]) Get() T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

// Set replaces the guarded value.
func (g *RWGuard[T]) Set(v T) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = v
}

// Write mutates the value in place under the write lock.
func (g *RWGuard[T]) Write(fn func(*T)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.value)
}
