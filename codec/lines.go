// Package codec provides ready-made transformers for common chunk framings.
//
// Each constructor returns a fresh transformer carrying its own framing
// state, so a transformer value must drive exactly one stream.
package codec

import (
	"bytes"
	"context"

	"github.com/fwojciec/sluice"
)

// Lines returns a transformer that reframes arbitrary byte chunks into one
// chunk per line. Line breaks may fall anywhere inside input chunks; a
// trailing "\r" is stripped; an unterminated final line is emitted on flush.
func Lines() *sluice.Transformer[[]byte, []byte] {
	var buf []byte
	return &sluice.Transformer[[]byte, []byte]{
		Transform: func(ctx context.Context, chunk []byte, c *sluice.Controller[[]byte]) error {
			buf = append(buf, chunk...)
			for {
				i := bytes.IndexByte(buf, '\n')
				if i < 0 {
					return nil
				}
				line := append([]byte(nil), trimCR(buf[:i])...)
				buf = buf[i+1:]
				if err := c.Enqueue(ctx, line); err != nil {
					return err
				}
			}
		},
		Flush: func(ctx context.Context, c *sluice.Controller[[]byte]) error {
			if len(buf) == 0 {
				return nil
			}
			line := append([]byte(nil), trimCR(buf)...)
			buf = nil
			return c.Enqueue(ctx, line)
		},
	}
}

func trimCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}
