package viewsync

import (
	"context"
	"sync"
)

// Slice holds one piece of screen state. Every fetch is stamped when issued;
// a result older than the last applied one is discarded.
type Slice[T any] struct {
	mu      sync.RWMutex
	value   T
	loaded  bool
	issued  uint64
	applied uint64
}

// Get returns the current value and whether it was ever loaded.
func (s *Slice[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.loaded
}

func (s *Slice[T]) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

func (s *Slice[T]) apply(seq uint64, v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		return false
	}
	s.value = v
	s.applied = seq
	s.loaded = true
	return true
}

// Fetch runs fn and stores its result in s. On error s keeps its prior value.
// The bool reports whether the result was applied.
func Fetch[T any](ctx context.Context, s *Slice[T], fn func(ctx context.Context) (T, error)) (bool, error) {
	seq := s.begin()
	v, err := fn(ctx)
	if err != nil {
		return false, err
	}
	return s.apply(seq, v), nil
}
