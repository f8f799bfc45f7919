package sluice_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"testing"

	"github.com/fwojciec/sluice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// produce writes chunks on its own goroutine, closes the writable side, and
// reports the first error on the returned channel.
func produce[T any](w *sluice.Writer[T], chunks []T) <-chan error {
	done := make(chan error, 1)
	go func() {
		ctx := context.Background()
		for _, chunk := range chunks {
			if err := w.Write(ctx, chunk); err != nil {
				done <- err
				return
			}
		}
		done <- w.Close(ctx)
	}()
	return done
}

// drain reads until the stream ends, returning the chunks read and the
// terminal error (io.EOF for a clean end).
func drain[T any](r *sluice.Reader[T]) ([]T, error) {
	var out []T
	for {
		chunk, err := r.Read(context.Background())
		if err != nil {
			return out, err
		}
		out = append(out, chunk)
	}
}

func TestTransform_PassThrough(t *testing.T) {
	t.Parallel()
	tr := sluice.NewTransform[int, int](nil, sluice.CountStrategy[int](4), sluice.CountStrategy[int](4))

	w, err := tr.Writable().Writer()
	require.NoError(t, err)
	r, err := tr.Readable().Reader()
	require.NoError(t, err)

	produced := produce(w, []int{1, 2, 3})
	out, terminal := drain(r)
	assert.Equal(t, []int{1, 2, 3}, out)
	assert.Equal(t, io.EOF, terminal)
	require.NoError(t, <-produced)
}

func TestTransform_MapsChunks(t *testing.T) {
	t.Parallel()
	tr := sluice.NewTransform(&sluice.Transformer[int, string]{
		Transform: func(ctx context.Context, chunk int, c *sluice.Controller[string]) error {
			return c.Enqueue(ctx, strconv.Itoa(chunk*2))
		},
	}, sluice.CountStrategy[int](4), sluice.CountStrategy[string](4))

	w, err := tr.Writable().Writer()
	require.NoError(t, err)
	r, err := tr.Readable().Reader()
	require.NoError(t, err)

	produced := produce(w, []int{1, 2, 3})
	out, terminal := drain(r)
	assert.Equal(t, []string{"2", "4", "6"}, out)
	assert.Equal(t, io.EOF, terminal)
	require.NoError(t, <-produced)
}

func TestTransform_StartAndFlushEnqueue(t *testing.T) {
	t.Parallel()
	tr := sluice.NewTransform(&sluice.Transformer[string, string]{
		Start: func(ctx context.Context, c *sluice.Controller[string]) error {
			return c.Enqueue(ctx, "header")
		},
		Transform: func(ctx context.Context, chunk string, c *sluice.Controller[string]) error {
			return c.Enqueue(ctx, chunk)
		},
		Flush: func(ctx context.Context, c *sluice.Controller[string]) error {
			return c.Enqueue(ctx, "trailer")
		},
	}, sluice.CountStrategy[string](4), sluice.CountStrategy[string](4))

	w, err := tr.Writable().Writer()
	require.NoError(t, err)
	r, err := tr.Readable().Reader()
	require.NoError(t, err)

	produced := produce(w, []string{"body"})
	out, terminal := drain(r)
	assert.Equal(t, []string{"header", "body", "trailer"}, out)
	assert.Equal(t, io.EOF, terminal)
	require.NoError(t, <-produced)
}

func TestTransform_TransformErrorFailsBothSides(t *testing.T) {
	t.Parallel()
	errBoom := errors.New("boom")
	tr := sluice.NewTransform(&sluice.Transformer[int, int]{
		Transform: func(context.Context, int, *sluice.Controller[int]) error {
			return errBoom
		},
	}, sluice.CountStrategy[int](4), sluice.CountStrategy[int](4))

	w, err := tr.Writable().Writer()
	require.NoError(t, err)
	r, err := tr.Readable().Reader()
	require.NoError(t, err)

	require.NoError(t, w.Write(context.Background(), 1))
	<-w.Done()
	assert.Equal(t, errBoom, w.Err())

	_, terminal := drain(r)
	assert.Equal(t, errBoom, terminal)
}

func TestTransform_ControllerErrorFailsBothSides(t *testing.T) {
	t.Parallel()
	errBoom := errors.New("boom")
	tr := sluice.NewTransform(&sluice.Transformer[int, int]{
		Transform: func(_ context.Context, _ int, c *sluice.Controller[int]) error {
			c.Error(errBoom)
			return nil
		},
	}, sluice.CountStrategy[int](4), sluice.CountStrategy[int](4))

	w, err := tr.Writable().Writer()
	require.NoError(t, err)
	r, err := tr.Readable().Reader()
	require.NoError(t, err)

	require.NoError(t, w.Write(context.Background(), 1))
	<-w.Done()
	assert.Equal(t, errBoom, w.Err())

	_, terminal := drain(r)
	assert.Equal(t, errBoom, terminal)
}

func TestTransform_FlushErrorFailsBothSides(t *testing.T) {
	t.Parallel()
	errBoom := errors.New("boom")
	tr := sluice.NewTransform(&sluice.Transformer[int, int]{
		Flush: func(context.Context, *sluice.Controller[int]) error {
			return errBoom
		},
	}, sluice.CountStrategy[int](4), sluice.CountStrategy[int](4))

	w, err := tr.Writable().Writer()
	require.NoError(t, err)
	r, err := tr.Readable().Reader()
	require.NoError(t, err)

	assert.Equal(t, errBoom, w.Close(context.Background()))
	_, terminal := drain(r)
	assert.Equal(t, errBoom, terminal)
}

func TestTransform_Terminate(t *testing.T) {
	t.Parallel()
	tr := sluice.NewTransform(&sluice.Transformer[int, int]{
		Transform: func(ctx context.Context, chunk int, c *sluice.Controller[int]) error {
			if err := c.Enqueue(ctx, chunk); err != nil {
				return err
			}
			if chunk == 2 {
				c.Terminate()
			}
			return nil
		},
	}, sluice.CountStrategy[int](4), sluice.CountStrategy[int](4))

	w, err := tr.Writable().Writer()
	require.NoError(t, err)
	r, err := tr.Readable().Reader()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.Write(ctx, 1))
	require.NoError(t, w.Write(ctx, 2))

	out, terminal := drain(r)
	assert.Equal(t, []int{1, 2}, out)
	assert.Equal(t, io.EOF, terminal)

	<-w.Done()
	assert.ErrorIs(t, w.Err(), sluice.ErrTerminated)
}

func TestTransform_ReaderCancelFailsWritable(t *testing.T) {
	t.Parallel()
	errBoom := errors.New("boom")
	tr := sluice.NewTransform[int, int](nil, sluice.CountStrategy[int](4), sluice.CountStrategy[int](4))

	w, err := tr.Writable().Writer()
	require.NoError(t, err)
	r, err := tr.Readable().Reader()
	require.NoError(t, err)

	require.NoError(t, r.Cancel(errBoom))
	<-w.Done()
	assert.Equal(t, errBoom, w.Err())
	assert.ErrorIs(t, w.Write(context.Background(), 1), errBoom)
}

func TestTransform_StartFailureFailsBothSides(t *testing.T) {
	t.Parallel()
	errBoom := errors.New("boom")
	tr := sluice.NewTransform(&sluice.Transformer[int, int]{
		Start: func(context.Context, *sluice.Controller[int]) error {
			return errBoom
		},
	}, sluice.CountStrategy[int](4), sluice.CountStrategy[int](4))

	w, err := tr.Writable().Writer()
	require.NoError(t, err)
	r, err := tr.Readable().Reader()
	require.NoError(t, err)

	<-w.Done()
	assert.Equal(t, errBoom, w.Err())
	_, terminal := drain(r)
	assert.Equal(t, errBoom, terminal)
}

func TestTransform_PassThroughTypeMismatch(t *testing.T) {
	t.Parallel()
	tr := sluice.NewTransform[int, string](nil, sluice.CountStrategy[int](4), sluice.CountStrategy[string](4))

	w, err := tr.Writable().Writer()
	require.NoError(t, err)
	require.NoError(t, w.Write(context.Background(), 1))

	<-w.Done()
	require.Error(t, w.Err())
	assert.Equal(t, fmt.Sprintf("pass-through: cannot enqueue %T as output chunk", 1), w.Err().Error())
}
