package codec_test

import (
	"context"
	"io"
	"testing"

	"github.com/fwojciec/sluice"
	"github.com/stretchr/testify/require"
)

// run drives a stream built from tr with the given input chunks and returns
// everything the readable side produced, plus the first error observed on
// either side.
func run[In, Out any](t *testing.T, tr *sluice.Transformer[In, Out], in []In) ([]Out, error) {
	t.Helper()
	s := sluice.NewWithStrategies(tr, sluice.CountStrategy[In](4), sluice.CountStrategy[Out](4))
	r, err := s.Readable().Reader()
	require.NoError(t, err)

	produced := make(chan error, 1)
	go func() {
		ctx := context.Background()
		for _, chunk := range in {
			if err := s.Writable().Write(ctx, chunk); err != nil {
				produced <- err
				return
			}
		}
		produced <- s.Writable().Close(ctx)
	}()

	var out []Out
	for {
		chunk, err := r.Read(context.Background())
		if err == io.EOF {
			return out, <-produced
		}
		if err != nil {
			<-produced
			return out, err
		}
		out = append(out, chunk)
	}
}

// rechunk splits the concatenation of chunks into pieces of at most n bytes,
// to exercise framing that spans chunk boundaries.
func rechunk(chunks [][]byte, n int) [][]byte {
	var joined []byte
	for _, c := range chunks {
		joined = append(joined, c...)
	}
	var out [][]byte
	for len(joined) > 0 {
		end := n
		if end > len(joined) {
			end = len(joined)
		}
		out = append(out, joined[:end])
		joined = joined[end:]
	}
	return out
}
