package sluice

import (
	"context"
	"io"
	"sync"
)

// ReadableStream is a readable endpoint fed by the stream that owns it.
// Chunks are queued up to the strategy's high-water mark; producers block
// beyond that until a reader catches up. At most one Reader may be active
// at a time.
type ReadableStream[T any] struct {
	mu       sync.Mutex
	note     *notifier
	state    streamState
	err      error
	queue    chunkQueue[T]
	strategy Strategy[T]
	reader   *Reader[T]
	waiting  int
	onCancel func(reason error)
}

func newReadableStream[T any](strategy Strategy[T]) *ReadableStream[T] {
	return &ReadableStream[T]{
		note:     newNotifier(),
		strategy: strategy,
	}
}

// Reader acquires exclusive read access. It fails with ErrReaderLocked if
// another reader is active.
func (s *ReadableStream[T]) Reader() (*Reader[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader != nil {
		return nil, ErrReaderLocked
	}
	s.reader = &Reader[T]{s: s}
	return s.reader, nil
}

// enqueue queues a chunk for the reader, blocking while the queue is at the
// high-water mark and no read is pending. With a high-water mark of zero
// this is a rendezvous: the chunk is only accepted once a reader is waiting.
func (s *ReadableStream[T]) enqueue(ctx context.Context, chunk T) error {
	size := s.strategy.sizeOf(chunk)
	s.mu.Lock()
	for {
		if s.state == stateErrored {
			err := s.err
			s.mu.Unlock()
			return err
		}
		if s.state == stateClosed {
			s.mu.Unlock()
			return ErrClosed
		}
		if s.queue.size() < s.strategy.highWaterMark() || s.waiting > 0 {
			break
		}
		ch := s.note.wait()
		s.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			if cause := context.Cause(ctx); cause != nil {
				return cause
			}
			return ctx.Err()
		}
		s.mu.Lock()
	}
	s.queue.push(chunk, size)
	s.note.broadcast()
	s.mu.Unlock()
	return nil
}

// closeStream marks the end of input. Queued chunks remain readable; reads
// past them return io.EOF.
func (s *ReadableStream[T]) closeStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateOpen {
		return
	}
	s.state = stateClosed
	s.note.broadcast()
}

// failStream errors the stream with reason, discarding queued chunks. The
// first failure wins.
func (s *ReadableStream[T]) failStream(reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateOpen {
		return
	}
	s.state = stateErrored
	s.err = reason
	s.queue.clear()
	s.note.broadcast()
}

func (s *ReadableStream[T]) desiredSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateOpen {
		return 0
	}
	return s.strategy.highWaterMark() - s.queue.size()
}

// Reader is the exclusive consumer handle for a ReadableStream.
type Reader[T any] struct {
	s *ReadableStream[T]
}

// Read returns the next chunk. It blocks until a chunk is available, the
// stream ends, or ctx ends. A cleanly ended stream returns io.EOF after the
// last queued chunk; an errored stream returns its failure reason.
func (r *Reader[T]) Read(ctx context.Context) (T, error) {
	var zero T
	s := r.s
	s.mu.Lock()
	for {
		if s.state == stateErrored {
			err := s.err
			s.mu.Unlock()
			return zero, err
		}
		if chunk, ok := s.queue.pop(); ok {
			s.note.broadcast()
			s.mu.Unlock()
			return chunk, nil
		}
		if s.state == stateClosed {
			s.mu.Unlock()
			return zero, io.EOF
		}
		s.waiting++
		s.note.broadcast()
		ch := s.note.wait()
		s.mu.Unlock()
		select {
		case <-ch:
			s.mu.Lock()
			s.waiting--
		case <-ctx.Done():
			s.mu.Lock()
			s.waiting--
			s.mu.Unlock()
			return zero, ctx.Err()
		}
	}
}

// Cancel signals that the consumer is done with the stream. The stream is
// closed to further chunks, queued chunks are discarded, and reason
// (ErrAborted when nil) is reported to the stream's producer side.
// Cancelling an errored stream returns its failure reason; cancelling a
// closed stream is a no-op.
func (r *Reader[T]) Cancel(reason error) error {
	if reason == nil {
		reason = ErrAborted
	}
	s := r.s
	s.mu.Lock()
	if s.state == stateErrored {
		err := s.err
		s.mu.Unlock()
		return err
	}
	if s.state == stateClosed {
		s.mu.Unlock()
		return nil
	}
	s.state = stateClosed
	s.queue.clear()
	onCancel := s.onCancel
	s.note.broadcast()
	s.mu.Unlock()
	if onCancel != nil {
		onCancel(reason)
	}
	return nil
}

// Release gives up read access so another Reader can be acquired.
func (r *Reader[T]) Release() {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader == r {
		s.reader = nil
	}
}
