package codec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/fwojciec/sluice"
)

// JSONLinesEncoder returns a transformer that encodes each value as one
// newline-terminated JSON document.
func JSONLinesEncoder[T any]() *sluice.Transformer[T, []byte] {
	return &sluice.Transformer[T, []byte]{
		Transform: func(ctx context.Context, chunk T, c *sluice.Controller[[]byte]) error {
			data, err := json.Marshal(chunk)
			if err != nil {
				return fmt.Errorf("encode json line: %w", err)
			}
			return c.Enqueue(ctx, append(data, '\n'))
		},
	}
}

// JSONLinesDecoder returns a transformer that decodes newline-delimited
// JSON from arbitrary byte chunks into values. Documents may span chunk
// boundaries; blank lines are skipped; an unterminated final document is
// decoded on flush.
func JSONLinesDecoder[T any]() *sluice.Transformer[[]byte, T] {
	var buf []byte
	decodeLine := func(ctx context.Context, line []byte, c *sluice.Controller[T]) error {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			return nil
		}
		var v T
		if err := json.Unmarshal(line, &v); err != nil {
			return fmt.Errorf("decode json line: %w", err)
		}
		return c.Enqueue(ctx, v)
	}
	return &sluice.Transformer[[]byte, T]{
		Transform: func(ctx context.Context, chunk []byte, c *sluice.Controller[T]) error {
			buf = append(buf, chunk...)
			for {
				i := bytes.IndexByte(buf, '\n')
				if i < 0 {
					return nil
				}
				line := buf[:i]
				buf = buf[i+1:]
				if err := decodeLine(ctx, line, c); err != nil {
					return err
				}
			}
		},
		Flush: func(ctx context.Context, c *sluice.Controller[T]) error {
			line := buf
			buf = nil
			return decodeLine(ctx, line, c)
		},
	}
}
