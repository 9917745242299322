// Package optimistic implements local updates that are rolled back when the
// write backing them fails.
package optimistic

import (
	"context"
	"fmt"
	"sync"
)

// State is a value guarded by a mutex whose updates can be applied
// optimistically.
type State[T any] struct {
	writes sync.Mutex // one Apply in flight
	mu     sync.Mutex
	value  T
	clone  func(T) T
}

// NewState returns a State holding initial. clone must return a copy that
// does not alias the original; it is used to snapshot before each update.
func NewState[T any](initial T, clone func(T) T) *State[T] {
	return &State[T]{value: initial, clone: clone}
}

// Get returns a copy of the current value.
func (s *State[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clone(s.value)
}

// Set replaces the current value.
func (s *State[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}

// RollbackError is returned when the write failed and the local state was
// restored to its snapshot.
type RollbackError struct {
	Err error
}

func (e *RollbackError) Error() string { return fmt.Sprintf("write failed, local state restored: %v", e.Err) }
func (e *RollbackError) Unwrap() error { return e.Err }

// Apply snapshots the current value, applies mutate to it, then issues
// write. If write fails the snapshot is restored and a *RollbackError
// wrapping the cause is returned. Readers may observe the mutated value
// while write is in flight.
//
// Only one Apply runs at a time; a concurrent Apply waits for the previous
// write to finish.
func (s *State[T]) Apply(ctx context.Context, mutate func(T) T, write func(context.Context) error) error {
	s.writes.Lock()
	defer s.writes.Unlock()

	s.mu.Lock()
	snapshot := s.clone(s.value)
	s.value = mutate(s.clone(s.value))
	s.mu.Unlock()

	err := write(ctx)
	if err == nil {
		return nil
	}

	s.mu.Lock()
	s.value = snapshot
	s.mu.Unlock()
	return &RollbackError{Err: err}
}
