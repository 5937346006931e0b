package wireproto

import (
	"bytes"
	"io"
	"testing"
)

// TestDecodeN_MultiEnvelope verifies DecodeN drains multiple envelopes from a
// single buffer, including a mix of both kinds and an empty payload.
func TestDecodeN_MultiEnvelope(t *testing.T) {
	c := Codec{}
	in := []Envelope{
		mkEnvelope(KindDecodeEvent, "NEC", 4),
		mkEnvelope(KindTransmitRequest, "AEHA", 18),
		mkEnvelope(KindDecodeEvent, "KOIZUMI", 0),
	}
	buf := bytes.NewReader(c.Encode(in))
	var out []Envelope
	n, err := c.DecodeN(buf, 0, func(e Envelope) { out = append(out, e) })
	if err != io.EOF && err != nil {
		t.Fatalf("DecodeN err=%v", err)
	}
	if n != len(in) || len(out) != len(in) {
		t.Fatalf("decoded %d collected %d want %d", n, len(out), len(in))
	}
	for i := range in {
		if out[i].Kind != in[i].Kind || out[i].Tag != in[i].Tag || out[i].SeqNo != in[i].SeqNo {
			t.Fatalf("envelope %d mismatch", i)
		}
	}
}

// TestDecodeN_StopsAtMax verifies a bounded max leaves the remaining
// envelopes undecoded rather than draining the whole stream.
func TestDecodeN_StopsAtMax(t *testing.T) {
	c := Codec{}
	in := []Envelope{
		mkEnvelope(KindDecodeEvent, "NEC", 0),
		mkEnvelope(KindDecodeEvent, "AEHA", 0),
		mkEnvelope(KindDecodeEvent, "SONY", 0),
	}
	buf := bytes.NewReader(c.Encode(in))
	var out []Envelope
	n, err := c.DecodeN(buf, 2, func(e Envelope) { out = append(out, e) })
	if err != nil {
		t.Fatalf("DecodeN err=%v", err)
	}
	if n != 2 || len(out) != 2 {
		t.Fatalf("decoded %d collected %d want 2", n, len(out))
	}
	if out[0].Tag != "NEC" || out[1].Tag != "AEHA" {
		t.Fatalf("unexpected envelopes decoded: %+v", out)
	}
}
