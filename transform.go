package sluice

import (
	"context"
	"fmt"
)

// Transform is the base transform stream: a writable side whose chunks are
// handed to a Transformer, and a readable side carrying what the
// transformer enqueues. Closing the writable side runs Flush and then ends
// the readable side; a failure on either side propagates to the other with
// the same reason.
//
// Transform ignores the transformer's Close hook. Stream is the variant
// that delivers it.
type Transform[In, Out any] struct {
	writable *WritableStream[In]
	readable *ReadableStream[Out]
}

// NewTransform creates a Transform driven by t. A nil t behaves as an empty
// Transformer: chunks pass through unchanged.
func NewTransform[In, Out any](t *Transformer[In, Out], writable Strategy[In], readable Strategy[Out]) *Transform[In, Out] {
	if t == nil {
		t = &Transformer[In, Out]{}
	}

	r := newReadableStream(readable)
	ctrl := &Controller[Out]{readable: r}

	transform := t.Transform
	if transform == nil {
		transform = passThrough[In, Out]
	}

	sink := Sink[In]{
		Write: func(ctx context.Context, chunk In) error {
			return transform(ctx, chunk, ctrl)
		},
		Close: func(ctx context.Context) error {
			if t.Flush != nil {
				if err := t.Flush(ctx, ctrl); err != nil {
					r.failStream(err)
					return err
				}
			}
			r.closeStream()
			return nil
		},
		Abort: func(reason error) error {
			r.failStream(reason)
			return nil
		},
	}
	if t.Start != nil {
		sink.Start = func(ctx context.Context) error {
			return t.Start(ctx, ctrl)
		}
	}

	w := newWritableStream(sink, writable)
	ctrl.fail = func(reason error) {
		r.failStream(reason)
		w.fail(reason)
	}
	ctrl.terminate = func() {
		r.closeStream()
		w.fail(ErrTerminated)
	}
	r.onCancel = func(reason error) {
		w.fail(reason)
	}

	go w.pump()

	// Mirror writable-side failures (a failing Start or Transform, an
	// abort) onto the readable side so pending reads observe the reason.
	go func() {
		<-w.done
		if err := w.storedErr(); err != nil {
			r.failStream(err)
		}
	}()

	return &Transform[In, Out]{writable: w, readable: r}
}

// passThrough is the default transform when none is supplied: the chunk is
// enqueued unchanged.
func passThrough[In, Out any](ctx context.Context, chunk In, c *Controller[Out]) error {
	out, ok := any(chunk).(Out)
	if !ok {
		return fmt.Errorf("pass-through: cannot enqueue %T as output chunk", chunk)
	}
	return c.Enqueue(ctx, out)
}

// Writable returns the writable endpoint. The same endpoint is returned on
// every call.
func (t *Transform[In, Out]) Writable() *WritableStream[In] {
	return t.writable
}

// Readable returns the readable endpoint. The same endpoint is returned on
// every call.
func (t *Transform[In, Out]) Readable() *ReadableStream[Out] {
	return t.readable
}
