package sluice

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrAborted is the failure reason recorded when a stream is aborted
	// or canceled without an explicit reason.
	ErrAborted = errors.New("stream aborted")

	// ErrClosed indicates a write or close on a stream that is already
	// closed or closing.
	ErrClosed = errors.New("stream closed")

	// ErrTerminated is the failure reason recorded on the writable side
	// when a transformer terminates the stream early.
	ErrTerminated = errors.New("stream terminated")

	// ErrAlreadyBound indicates Bind was called twice on the same Monitor.
	ErrAlreadyBound = errors.New("monitor already bound")

	// ErrWriterLocked indicates the writable endpoint already has an
	// active writer.
	ErrWriterLocked = errors.New("writer already acquired")

	// ErrReaderLocked indicates the readable endpoint already has an
	// active reader.
	ErrReaderLocked = errors.New("reader already acquired")
)
