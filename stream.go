// Package sluice implements transform streams whose transformer is reliably
// told, exactly once, when the stream's lifetime ends — whether that end is
// a clean end-of-input or an abort caused by a failure anywhere in the
// pipeline. The base transform primitive only runs Flush on clean
// completion; a transformer holding a file handle, socket, or lock has no
// hook on the error paths. Stream adds that hook (Transformer.Close) and an
// abort Signal the transformer can watch while it runs.
package sluice

import (
	"context"
	"sync"
)

// Stream is a shutdown-aware transform stream. Its writable endpoint is a
// Monitor bound at construction to an internal Transform; its readable
// endpoint is that Transform's readable side. When the internal stream
// settles with a failure, the failure reason fires the stream's Signal and
// the transformer's Close hook runs; when it settles cleanly, Close has
// already run right after Flush. Either way Close runs exactly once.
type Stream[In, Out any] struct {
	monitor   *Monitor[In]
	transform *Transform[In, Out]
	signal    *Signal
}

// New creates a Stream driven by t with default queuing: a writable
// high-water mark of one and a readable high-water mark of zero. A nil t
// passes chunks through unchanged.
func New[In, Out any](t *Transformer[In, Out]) *Stream[In, Out] {
	return NewWithStrategies(t, CountStrategy[In](1), CountStrategy[Out](0))
}

// NewWithStrategies is New with explicit queuing strategies for the
// writable and readable sides.
func NewWithStrategies[In, Out any](t *Transformer[In, Out], writable Strategy[In], readable Strategy[Out]) *Stream[In, Out] {
	sig, trigger := NewSignal()
	inner, deliver := wrapTransformer(t, sig)
	tr := NewTransform(inner, writable, readable)

	mon := NewMonitor[In]()
	if err := mon.Bind(tr.Writable()); err != nil {
		// The transform is freshly constructed and its writer is
		// unclaimed, so the one-time bind cannot fail.
		panic("sluice: bind failed: " + err.Error())
	}

	go func() {
		<-mon.Done()
		if err := mon.Err(); err != nil {
			trigger(err)
		}
		deliver()
	}()

	return &Stream[In, Out]{monitor: mon, transform: tr, signal: sig}
}

// Writable returns the writable endpoint. The same endpoint is returned on
// every call.
func (s *Stream[In, Out]) Writable() *Monitor[In] {
	return s.monitor
}

// Readable returns the readable endpoint. The same endpoint is returned on
// every call.
func (s *Stream[In, Out]) Readable() *ReadableStream[Out] {
	return s.transform.Readable()
}

// wrapTransformer wraps the user transformer for the internal Transform.
// The wrapper hands every hook a controller carrying the abort signal, and
// it returns the idempotent delivery function for the Close hook: Flush's
// wrapper invokes it once Flush settles (successfully or not), and the
// stream's watcher invokes it when the stream settles, so whichever happens
// first delivers and the other is a no-op.
func wrapTransformer[In, Out any](t *Transformer[In, Out], sig *Signal) (*Transformer[In, Out], func()) {
	if t == nil {
		t = &Transformer[In, Out]{}
	}

	var once sync.Once
	deliver := func() {
		if t.Close != nil {
			once.Do(t.Close)
		}
	}

	// ctrl is built in Start and read by the later hooks. All hooks run
	// sequentially on the stream's pump goroutine, Start first, so no
	// further synchronization is needed.
	var ctrl *Controller[Out]

	inner := &Transformer[In, Out]{
		Start: func(ctx context.Context, c *Controller[Out]) error {
			ctrl = c.withSignal(sig)
			if t.Start != nil {
				return t.Start(ctx, ctrl)
			}
			return nil
		},
		Flush: func(ctx context.Context, _ *Controller[Out]) error {
			var err error
			if t.Flush != nil {
				err = t.Flush(ctx, ctrl)
			}
			deliver()
			return err
		},
	}
	// A transformer without Transform keeps the base pass-through; the
	// wrapper only interposes when the user supplied one.
	if t.Transform != nil {
		inner.Transform = func(ctx context.Context, chunk In, _ *Controller[Out]) error {
			return t.Transform(ctx, chunk, ctrl)
		}
	}
	return inner, deliver
}
