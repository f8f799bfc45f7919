package codec

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/fwojciec/sluice"
)

// Msgpack frames are a 4-byte big-endian payload length followed by the
// msgpack-encoded value, so the decoder can reassemble values regardless of
// how the byte stream is chunked.
const msgpackHeaderLen = 4

// MsgpackEncoder returns a transformer that encodes each value as one
// length-prefixed msgpack frame.
func MsgpackEncoder[T any]() *sluice.Transformer[T, []byte] {
	return &sluice.Transformer[T, []byte]{
		Transform: func(ctx context.Context, chunk T, c *sluice.Controller[[]byte]) error {
			data, err := msgpack.Marshal(chunk)
			if err != nil {
				return fmt.Errorf("encode msgpack frame: %w", err)
			}
			frame := make([]byte, msgpackHeaderLen+len(data))
			binary.BigEndian.PutUint32(frame, uint32(len(data)))
			copy(frame[msgpackHeaderLen:], data)
			return c.Enqueue(ctx, frame)
		},
	}
}

// MsgpackDecoder returns a transformer that decodes length-prefixed msgpack
// frames from arbitrary byte chunks into values. Frames may span chunk
// boundaries; bytes left over at end of input fail the stream.
func MsgpackDecoder[T any]() *sluice.Transformer[[]byte, T] {
	var buf []byte
	return &sluice.Transformer[[]byte, T]{
		Transform: func(ctx context.Context, chunk []byte, c *sluice.Controller[T]) error {
			buf = append(buf, chunk...)
			for len(buf) >= msgpackHeaderLen {
				n := int(binary.BigEndian.Uint32(buf))
				if len(buf) < msgpackHeaderLen+n {
					return nil
				}
				var v T
				if err := msgpack.Unmarshal(buf[msgpackHeaderLen:msgpackHeaderLen+n], &v); err != nil {
					return fmt.Errorf("decode msgpack frame: %w", err)
				}
				buf = buf[msgpackHeaderLen+n:]
				if err := c.Enqueue(ctx, v); err != nil {
					return err
				}
			}
			return nil
		},
		Flush: func(ctx context.Context, c *sluice.Controller[T]) error {
			if len(buf) != 0 {
				return fmt.Errorf("decode msgpack frame: %d trailing bytes after last frame", len(buf))
			}
			return nil
		},
	}
}
