package transport

import (
	"io"

	"github.com/lemonwave/ir-bridge/internal/wireproto"
)

// FrameDecoder decodes a single envelope from a stream.
type FrameDecoder interface {
	Decode(r io.Reader) (wireproto.Envelope, error)
}

// MultiFrameDecoder optionally drains multiple envelopes from a stream.
type MultiFrameDecoder interface {
	DecodeN(r io.Reader, max int, onFrame func(wireproto.Envelope)) (int, error)
}

// FrameBatchEncoder can encode batches efficiently (either to bytes or directly to writer).
type FrameBatchEncoder interface {
	Encode([]wireproto.Envelope) []byte
	EncodeTo(w io.Writer, envs []wireproto.Envelope) (int, error)
}

// FrameSink is a generic envelope transmission target.
type FrameSink interface {
	SendFrame(wireproto.Envelope) error
}

// Compile-time assertions that *wireproto.Codec satisfies the optional capabilities.
var (
	_ FrameDecoder      = (*wireproto.Codec)(nil)
	_ MultiFrameDecoder = (*wireproto.Codec)(nil)
	_ FrameBatchEncoder = (*wireproto.Codec)(nil)
)
