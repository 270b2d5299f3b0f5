// Package fstate provides the per-run result store: a key-to-value map
// populated by producing stages and read, with type reification, by their
// consumers.
package fstate

import (
	"fmt"
	"sync"

	"github.com/birdayz/flowz/fdag"
	"golang.org/x/exp/maps"
)

// Store maps stage keys to their erased results. A single mutex guards all
// access; the scheduler already orders producers before consumers, so
// contention is bounded by the worker count and the lock is held only for
// map operations, never while a user computation runs.
type Store struct {
	mu     sync.RWMutex
	values map[fdag.Key]any
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{values: make(map[fdag.Key]any)}
}

// Put publishes the result of stage k.
func (s *Store) Put(k fdag.Key, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[k] = v
}

// Load returns the erased value for k.
func (s *Store) Load(k fdag.Key) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[k]
	return v, ok
}

// Contains reports whether a result for k is present.
func (s *Store) Contains(k fdag.Key) bool {
	_, ok := s.Load(k)
	return ok
}

// Clear drops all results. Called at the start of every run.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Clear(s.values)
}

// Len returns the number of stored results.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Keys returns the keys of all stored results, in unspecified order.
func (s *Store) Keys() []fdag.Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Keys(s.values)
}

// Get loads the result of stage k reified to T. A missing entry yields
// ErrUnknownStage, a stored value of a different type ErrTypeMismatch.
func Get[T any](s *Store, k fdag.Key) (T, error) {
	var zero T
	v, ok := s.Load(k)
	if !ok {
		return zero, fmt.Errorf("%w: no result for %s", fdag.ErrUnknownStage, k)
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: result of %s is %T, not %T", fdag.ErrTypeMismatch, k, v, zero)
	}
	return typed, nil
}
