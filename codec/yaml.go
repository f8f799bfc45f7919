package codec

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/fwojciec/sluice"
)

var yamlSeparator = []byte("---\n")

// YAMLEncoder returns a transformer that encodes each value as one YAML
// document terminated by a "---" separator line.
func YAMLEncoder[T any]() *sluice.Transformer[T, []byte] {
	return &sluice.Transformer[T, []byte]{
		Transform: func(ctx context.Context, chunk T, c *sluice.Controller[[]byte]) error {
			data, err := yaml.Marshal(chunk)
			if err != nil {
				return fmt.Errorf("encode yaml document: %w", err)
			}
			return c.Enqueue(ctx, append(data, yamlSeparator...))
		},
	}
}

// YAMLDecoder returns a transformer that decodes a stream of "---"
// separated YAML documents from arbitrary byte chunks into values.
// Documents may span chunk boundaries; empty documents are skipped; the
// final document needs no trailing separator and is decoded on flush.
func YAMLDecoder[T any]() *sluice.Transformer[[]byte, T] {
	var buf []byte
	decodeDoc := func(ctx context.Context, doc []byte, c *sluice.Controller[T]) error {
		if len(bytes.TrimSpace(doc)) == 0 {
			return nil
		}
		var v T
		if err := yaml.Unmarshal(doc, &v); err != nil {
			return fmt.Errorf("decode yaml document: %w", err)
		}
		return c.Enqueue(ctx, v)
	}
	return &sluice.Transformer[[]byte, T]{
		Transform: func(ctx context.Context, chunk []byte, c *sluice.Controller[T]) error {
			buf = append(buf, chunk...)
			for {
				i := separatorIndex(buf)
				if i < 0 {
					return nil
				}
				doc := buf[:i]
				buf = buf[i+len(yamlSeparator):]
				if err := decodeDoc(ctx, doc, c); err != nil {
					return err
				}
			}
		},
		Flush: func(ctx context.Context, c *sluice.Controller[T]) error {
			doc := buf
			buf = nil
			return decodeDoc(ctx, doc, c)
		},
	}
}

// separatorIndex finds a "---" separator line in buf: at the start of the
// buffer or right after a newline.
func separatorIndex(buf []byte) int {
	if bytes.HasPrefix(buf, yamlSeparator) {
		return 0
	}
	i := bytes.Index(buf, append([]byte("\n"), yamlSeparator...))
	if i < 0 {
		return -1
	}
	return i + 1
}
