package sluice

import (
	"context"
	"sync"
)

// Monitor is a writable endpoint whose destination is supplied after
// construction. Until Bind is called, writes and closes suspend; once
// bound, every operation forwards to the destination's writer, and the
// destination's completion is mirrored onto Done and Err. The monitor adds
// no buffering of its own, so placing it in front of a stream does not
// change the pipeline's queue depth.
type Monitor[T any] struct {
	mu      sync.Mutex
	isBound bool
	writer  *Writer[T]
	err     error
	bound   chan struct{}
	done    chan struct{}
}

// NewMonitor creates an unbound Monitor.
func NewMonitor[T any]() *Monitor[T] {
	return &Monitor[T]{
		bound: make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Bind attaches the monitor to its destination, acquiring exclusive write
// access to it. Binding twice fails with ErrAlreadyBound; binding to a
// destination that already has a writer fails with ErrWriterLocked and
// leaves the monitor unbound. Operations suspended before Bind proceed, in
// call order, once it succeeds.
func (m *Monitor[T]) Bind(dest *WritableStream[T]) error {
	m.mu.Lock()
	if m.isBound {
		m.mu.Unlock()
		return ErrAlreadyBound
	}
	w, err := dest.Writer()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.isBound = true
	m.writer = w
	close(m.bound)
	m.mu.Unlock()

	go func() {
		<-w.Done()
		m.mu.Lock()
		m.err = w.Err()
		m.mu.Unlock()
		close(m.done)
	}()
	return nil
}

// Write forwards a chunk to the destination, suspending until the monitor
// is bound and then until the destination accepts the chunk.
func (m *Monitor[T]) Write(ctx context.Context, chunk T) error {
	select {
	case <-m.bound:
	case <-ctx.Done():
		return ctx.Err()
	}
	return m.writer.Write(ctx, chunk)
}

// Close forwards to the destination's close, suspending until the monitor
// is bound and then until the destination settles.
func (m *Monitor[T]) Close(ctx context.Context) error {
	select {
	case <-m.bound:
	case <-ctx.Done():
		return ctx.Err()
	}
	return m.writer.Close(ctx)
}

// Abort forwards to the destination's abort, suspending until the monitor
// is bound. The destination records reason as its failure even if its own
// abort step fails; that secondary failure is returned to this caller only.
func (m *Monitor[T]) Abort(reason error) error {
	<-m.bound
	return m.writer.Abort(reason)
}

// DesiredSize returns the destination's desired size, or zero while the
// monitor is unbound.
func (m *Monitor[T]) DesiredSize() int {
	m.mu.Lock()
	w := m.writer
	m.mu.Unlock()
	if w == nil {
		return 0
	}
	return w.DesiredSize()
}

// Done returns a channel closed when the bound destination settles.
func (m *Monitor[T]) Done() <-chan struct{} {
	return m.done
}

// Err returns the destination's failure reason, or nil before Done is
// closed and after a clean close.
func (m *Monitor[T]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}
