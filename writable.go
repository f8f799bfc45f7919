package sluice

import (
	"context"
	"sync"
)

// Sink receives the chunks written to a WritableStream. Set the function
// fields for the steps you need; nil fields are skipped.
//
// All callbacks except Abort run sequentially on the stream's own goroutine:
// Start first, then Write once per chunk in write order, then Close after
// the last queued chunk when the writer closes cleanly, or Abort if the
// writer aborts. Write and Close must return promptly when ctx is done, or
// an abort cannot interrupt them.
type Sink[T any] struct {
	Start func(ctx context.Context) error
	Write func(ctx context.Context, chunk T) error
	Close func(ctx context.Context) error
	Abort func(reason error) error
}

type streamState int

const (
	stateOpen streamState = iota
	stateClosed
	stateErrored
)

// WritableStream is a writable endpoint backed by a Sink. Chunks are queued
// up to the strategy's high-water mark; writes beyond that block until the
// sink catches up. At most one Writer may be active at a time.
type WritableStream[T any] struct {
	mu             sync.Mutex
	note           *notifier
	state          streamState
	err            error
	queue          chunkQueue[T]
	strategy       Strategy[T]
	sink           Sink[T]
	writer         *Writer[T]
	closeRequested bool
	abortRequested bool
	abortResult    chan error
	done           chan struct{}
	pumpCtx        context.Context
	pumpCancel     context.CancelCauseFunc
}

// NewWritableStream creates a WritableStream over the given sink and starts
// delivering written chunks to it.
func NewWritableStream[T any](sink Sink[T], strategy Strategy[T]) *WritableStream[T] {
	s := newWritableStream(sink, strategy)
	go s.pump()
	return s
}

// newWritableStream constructs the stream without starting the pump, so a
// caller can finish wiring state the sink closes over before the sink runs.
func newWritableStream[T any](sink Sink[T], strategy Strategy[T]) *WritableStream[T] {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &WritableStream[T]{
		note:        newNotifier(),
		strategy:    strategy,
		sink:        sink,
		abortResult: make(chan error, 1),
		done:        make(chan struct{}),
		pumpCtx:     ctx,
		pumpCancel:  cancel,
	}
}

// Writer acquires exclusive write access. It fails with ErrWriterLocked if
// another writer is active.
func (s *WritableStream[T]) Writer() (*Writer[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer != nil {
		return nil, ErrWriterLocked
	}
	s.writer = &Writer[T]{s: s}
	return s.writer, nil
}

// fail moves the stream to the errored state with the given reason. The
// first failure wins; later calls are no-ops. Queued chunks are discarded.
func (s *WritableStream[T]) fail(reason error) {
	s.mu.Lock()
	if s.state != stateOpen {
		s.mu.Unlock()
		return
	}
	s.state = stateErrored
	s.err = reason
	s.queue.clear()
	s.note.broadcast()
	s.mu.Unlock()
	s.pumpCancel(reason)
}

func (s *WritableStream[T]) storedErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// pump runs the sink: start, then one write per queued chunk, then close or
// abort. It is the only goroutine that invokes the sink, so sink steps never
// overlap.
func (s *WritableStream[T]) pump() {
	defer close(s.done)
	defer s.pumpCancel(nil)

	if s.sink.Start != nil {
		if err := s.sink.Start(s.pumpCtx); err != nil {
			s.fail(err)
		}
	}

	for {
		s.mu.Lock()
		for s.state == stateOpen && s.queue.len() == 0 && !s.closeRequested {
			ch := s.note.wait()
			s.mu.Unlock()
			<-ch
			s.mu.Lock()
		}

		if s.state == stateErrored {
			abort := s.abortRequested
			reason := s.err
			s.mu.Unlock()
			if abort {
				var err error
				if s.sink.Abort != nil {
					err = s.sink.Abort(reason)
				}
				s.abortResult <- err
			}
			return
		}
		if s.state == stateClosed {
			s.mu.Unlock()
			return
		}

		if chunk, ok := s.queue.pop(); ok {
			s.note.broadcast()
			s.mu.Unlock()
			var err error
			if s.sink.Write != nil {
				err = s.sink.Write(s.pumpCtx, chunk)
			}
			if err != nil {
				s.fail(err)
			}
			continue
		}

		// Close requested and the queue is drained.
		s.mu.Unlock()
		var err error
		if s.sink.Close != nil {
			err = s.sink.Close(s.pumpCtx)
		}
		s.mu.Lock()
		if s.state == stateOpen {
			if err != nil {
				s.state = stateErrored
				s.err = err
				s.pumpCancel(err)
			} else {
				s.state = stateClosed
			}
			s.note.broadcast()
		}
		s.mu.Unlock()
	}
}

// Writer is the exclusive producer handle for a WritableStream.
type Writer[T any] struct {
	s *WritableStream[T]
}

// Write queues a chunk, blocking while the stream is at its high-water mark.
// It returns the stream's stored failure reason if the stream has errored,
// ErrClosed if it is closing or closed, and ctx's error if ctx ends first.
func (w *Writer[T]) Write(ctx context.Context, chunk T) error {
	s := w.s
	size := s.strategy.sizeOf(chunk)
	s.mu.Lock()
	for {
		if s.state == stateErrored {
			err := s.err
			s.mu.Unlock()
			return err
		}
		if s.state == stateClosed || s.closeRequested {
			s.mu.Unlock()
			return ErrClosed
		}
		if s.queue.len() == 0 || s.queue.size() < s.strategy.highWaterMark() {
			break
		}
		ch := s.note.wait()
		s.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
	}
	s.queue.push(chunk, size)
	s.note.broadcast()
	s.mu.Unlock()
	return nil
}

// Close drains the queue, runs the sink's Close step, and waits for the
// stream to settle. It returns the stream's failure reason if the stream
// errors before settling (including a Close step failure), and ErrClosed if
// close was already requested.
func (w *Writer[T]) Close(ctx context.Context) error {
	s := w.s
	s.mu.Lock()
	if s.state == stateErrored {
		err := s.err
		s.mu.Unlock()
		return err
	}
	if s.state == stateClosed || s.closeRequested {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closeRequested = true
	s.note.broadcast()
	s.mu.Unlock()

	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateErrored {
		return s.err
	}
	return nil
}

// Abort errors the stream with reason (ErrAborted when nil), discards queued
// chunks, and runs the sink's Abort step. The stream's recorded failure is
// always reason; if the sink's Abort step itself fails, that secondary
// failure is returned to this caller only. Aborting an already settled
// stream is a no-op returning nil.
func (w *Writer[T]) Abort(reason error) error {
	if reason == nil {
		reason = ErrAborted
	}
	s := w.s
	s.mu.Lock()
	if s.state != stateOpen {
		s.mu.Unlock()
		return nil
	}
	s.state = stateErrored
	s.err = reason
	s.abortRequested = true
	s.queue.clear()
	s.note.broadcast()
	s.mu.Unlock()
	s.pumpCancel(reason)
	return <-s.abortResult
}

// DesiredSize returns how much more may be queued before backpressure
// applies. It is zero or negative once the stream has settled or is closing.
func (w *Writer[T]) DesiredSize() int {
	s := w.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateOpen || s.closeRequested {
		return 0
	}
	return s.strategy.highWaterMark() - s.queue.size()
}

// Done returns a channel closed when the stream settles, cleanly or not.
func (w *Writer[T]) Done() <-chan struct{} {
	return w.s.done
}

// Err returns the stream's failure reason, or nil while it is open or after
// a clean close.
func (w *Writer[T]) Err() error {
	s := w.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Release gives up write access so another Writer can be acquired.
func (w *Writer[T]) Release() {
	s := w.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == w {
		s.writer = nil
	}
}
