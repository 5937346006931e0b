package wireproto

import (
	"bytes"
	"testing"
)

// FuzzCodecRoundTrip ensures arbitrary small envelope sets survive encode/decode.
func FuzzCodecRoundTrip(f *testing.F) {
	c := Codec{}
	seed := [][]Envelope{
		{mkEnvelope(KindDecodeEvent, "NEC", 0)},
		{mkEnvelope(KindTransmitRequest, "AEHA", 18)},
		{mkEnvelope(KindDecodeEvent, "SONY", 3), mkEnvelope(KindDecodeEvent, "DAIKIN", 5)},
	}
	for _, s := range seed {
		wire := c.Encode(s)
		f.Add(wire)
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		// Feed back data as if it were a packet; decode at most a handful of
		// envelopes to bound work on adversarial input.
		r := bytes.NewReader(data)
		_, _ = c.DecodeN(r, 16, func(Envelope) {})
	})
}

// FuzzCodecDecodeInvalid ensures decoder doesn't panic with random input.
func FuzzCodecDecodeInvalid(f *testing.F) {
	c := Codec{}
	f.Add([]byte{byte(KindDecodeEvent), 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	f.Fuzz(func(t *testing.T, data []byte) {
		r := bytes.NewReader(data)
		_, _ = c.Decode(r)
	})
}
