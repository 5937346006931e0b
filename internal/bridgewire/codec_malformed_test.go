package bridgewire

import (
	"bytes"
	"testing"

	"github.com/lemonwave/ir-bridge/internal/metrics"
)

// TestDecodeStreamMalformed ensures a corrupted checksum increments the
// shared malformed-frame metric and the decoder resyncs instead of hanging.
func TestDecodeStreamMalformed(t *testing.T) {
	var buf bytes.Buffer
	codec := Codec{}
	before := metrics.Snap().Malformed

	frame := codec.Encode(Frame{Kind: KindCapture, Payload: []byte{0xAA}})
	frame[len(frame)-1] ^= 0xFF // corrupt checksum
	buf.Write(frame)

	if err := codec.DecodeStream(&buf, func(_ Frame) {}); err != nil {
		t.Fatalf("DecodeStream error: %v", err)
	}
	after := metrics.Snap().Malformed
	if after <= before {
		t.Fatalf("expected malformed metric increment, before=%d after=%d", before, after)
	}
}

func TestDecodeStreamGarbagePrefixResyncs(t *testing.T) {
	var buf bytes.Buffer
	codec := Codec{}

	buf.Write([]byte{0x00, 0xFF, 0xC1}) // partial preamble garbage
	buf.Write(codec.Encode(Frame{Kind: KindTransmit, Payload: []byte{0x42}}))

	var got []Frame
	if err := codec.DecodeStream(&buf, func(f Frame) { got = append(got, f) }); err != nil {
		t.Fatalf("DecodeStream error: %v", err)
	}
	if len(got) != 1 || got[0].Kind != KindTransmit {
		t.Fatalf("expected to resync and decode 1 transmit frame, got %+v", got)
	}
}
