// Package mock provides test doubles for sluice collaborators.
package mock

import (
	"context"
	"sync"

	"github.com/fwojciec/sluice"
)

// Sink is a recording test double for a sluice.Sink destination. It records
// every step in order and is safe for concurrent use. Set the function
// fields to inject behavior; nil fields record and succeed, so test code
// only overrides the steps it cares about.
type Sink[T any] struct {
	StartFn func(ctx context.Context) error
	WriteFn func(ctx context.Context, chunk T) error
	CloseFn func(ctx context.Context) error
	AbortFn func(reason error) error

	mu      sync.Mutex
	started bool
	chunks  []T
	closed  bool
	aborted bool
	reason  error
}

// Sink returns the sluice.Sink that drives this double.
func (s *Sink[T]) Sink() sluice.Sink[T] {
	return sluice.Sink[T]{
		Start: s.Start,
		Write: s.Write,
		Close: s.Close,
		Abort: s.Abort,
	}
}

// Start records the call and delegates to StartFn when set.
func (s *Sink[T]) Start(ctx context.Context) error {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	if s.StartFn != nil {
		return s.StartFn(ctx)
	}
	return nil
}

// Write records the chunk and delegates to WriteFn when set.
func (s *Sink[T]) Write(ctx context.Context, chunk T) error {
	s.mu.Lock()
	s.chunks = append(s.chunks, chunk)
	s.mu.Unlock()
	if s.WriteFn != nil {
		return s.WriteFn(ctx, chunk)
	}
	return nil
}

// Close records the call and delegates to CloseFn when set.
func (s *Sink[T]) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	if s.CloseFn != nil {
		return s.CloseFn(ctx)
	}
	return nil
}

// Abort records the reason and delegates to AbortFn when set.
func (s *Sink[T]) Abort(reason error) error {
	s.mu.Lock()
	s.aborted = true
	s.reason = reason
	s.mu.Unlock()
	if s.AbortFn != nil {
		return s.AbortFn(reason)
	}
	return nil
}

// Started reports whether Start ran.
func (s *Sink[T]) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Chunks returns the chunks written so far, in write order.
func (s *Sink[T]) Chunks() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.chunks...)
}

// Closed reports whether Close ran.
func (s *Sink[T]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Aborted reports whether Abort ran, and with which reason.
func (s *Sink[T]) Aborted() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted, s.reason
}
