package sluice

// Strategy configures queuing for one side of a stream: how chunk sizes are
// measured and how much may be queued before backpressure is applied.
//
// The zero value means a high-water mark of zero (maximum backpressure: each
// chunk is handed over in rendezvous with the consumer) with every chunk
// counting as one.
type Strategy[T any] struct {
	// HighWaterMark is the total queued size at which backpressure begins.
	// Negative values are treated as zero.
	HighWaterMark int

	// Size measures a chunk. Nil means every chunk counts as one.
	Size func(chunk T) int
}

func (s Strategy[T]) sizeOf(chunk T) int {
	if s.Size == nil {
		return 1
	}
	return s.Size(chunk)
}

func (s Strategy[T]) highWaterMark() int {
	if s.HighWaterMark < 0 {
		return 0
	}
	return s.HighWaterMark
}

// CountStrategy returns a Strategy that counts each chunk as one, with the
// given high-water mark.
func CountStrategy[T any](highWaterMark int) Strategy[T] {
	return Strategy[T]{HighWaterMark: highWaterMark}
}

// ByteLengthStrategy returns a Strategy for byte-slice streams that measures
// chunks by their length in bytes.
func ByteLengthStrategy(highWaterMark int) Strategy[[]byte] {
	return Strategy[[]byte]{
		HighWaterMark: highWaterMark,
		Size:          func(chunk []byte) int { return len(chunk) },
	}
}
