package sluice

import "context"

// Transformer defines how a stream maps input chunks to output chunks. Set
// the function fields for the lifecycle hooks you need; nil fields are
// skipped, and a nil Transform means chunks pass through unchanged (In must
// then be assignable to Out).
//
// Hooks run sequentially on the stream's own goroutine: Start once before
// the first chunk, Transform once per chunk in write order, Flush once
// after the last chunk when the writable side closes cleanly. An error
// returned from any hook aborts the whole stream with that error.
//
// Close is the shutdown notification added by Stream: it runs exactly once
// when the stream's lifetime ends, whether that end is a clean close (after
// Flush settles, successfully or not) or an abort anywhere in the pipeline.
// It receives no arguments; a transformer that needs the failure reason
// keeps the controller's Signal from Start and inspects it. Transform
// ignores Close; only Stream honors it.
type Transformer[In, Out any] struct {
	Start     func(ctx context.Context, c *Controller[Out]) error
	Transform func(ctx context.Context, chunk In, c *Controller[Out]) error
	Flush     func(ctx context.Context, c *Controller[Out]) error
	Close     func()
}

// Controller lets transformer hooks emit output chunks, fail the stream, or
// end it early.
type Controller[Out any] struct {
	readable  *ReadableStream[Out]
	fail      func(reason error)
	terminate func()
	signal    *Signal
}

// Enqueue queues a chunk on the readable side. It blocks while the readable
// queue is at its high-water mark, which is how downstream backpressure
// reaches the transformer.
func (c *Controller[Out]) Enqueue(ctx context.Context, chunk Out) error {
	return c.readable.enqueue(ctx, chunk)
}

// Error fails both sides of the stream with reason (ErrAborted when nil).
// The first failure wins.
func (c *Controller[Out]) Error(reason error) {
	if reason == nil {
		reason = ErrAborted
	}
	c.fail(reason)
}

// Terminate ends the stream early: the readable side closes cleanly after
// its queued chunks and the writable side errors with ErrTerminated.
func (c *Controller[Out]) Terminate() {
	c.terminate()
}

// DesiredSize returns how much more the readable side wants before
// backpressure applies. It can go negative and is zero once the stream has
// settled.
func (c *Controller[Out]) DesiredSize() int {
	return c.readable.desiredSize()
}

// Signal returns the stream's abort signal, or nil when the controller
// belongs to a plain Transform. Controllers handed to transformers by
// Stream always carry the signal, so hooks can watch for aborts while they
// run (for example to release resources mid-flight).
func (c *Controller[Out]) Signal() *Signal {
	return c.signal
}

// withSignal returns a copy of the controller carrying the given signal.
func (c *Controller[Out]) withSignal(sig *Signal) *Controller[Out] {
	cc := *c
	cc.signal = sig
	return &cc
}
