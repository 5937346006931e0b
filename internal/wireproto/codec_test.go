package wireproto

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"
)

func mkEnvelope(kind Kind, tag string, payloadLen int) Envelope {
	if payloadLen < 0 {
		payloadLen = 0
	}
	payload := make([]byte, payloadLen)
	rand.Read(payload)
	return Envelope{
		Kind:    kind,
		Tag:     tag,
		Summary: "custom=1234 cmd=56",
		Cycle:   1,
		SeqNo:   42,
		Payload: payload,
	}
}

func TestWireprotoCodec_RoundTrip(t *testing.T) {
	codec := Codec{}
	in := []Envelope{
		mkEnvelope(KindDecodeEvent, "NEC", 0),
		mkEnvelope(KindTransmitRequest, "AEHA", 18),
		mkEnvelope(KindDecodeEvent, "", 4),
	}

	wire := codec.Encode(in)
	var out []Envelope
	br := bytes.NewReader(wire)
	n, err := codec.DecodeN(br, 0, func(e Envelope) { out = append(out, e) })
	if err != io.EOF && err != nil {
		t.Fatalf("DecodeN unexpected err: %v", err)
	}
	if n != len(in) {
		t.Fatalf("decoded %d, want %d", n, len(in))
	}
	if len(out) != len(in) {
		t.Fatalf("collected %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].Kind != in[i].Kind || out[i].Tag != in[i].Tag || out[i].Summary != in[i].Summary ||
			out[i].Cycle != in[i].Cycle || out[i].SeqNo != in[i].SeqNo || !bytes.Equal(out[i].Payload, in[i].Payload) {
			t.Fatalf("envelope %d mismatch: got %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestWireprotoCodec_EncodeToMatchesEncode(t *testing.T) {
	codec := Codec{}
	envs := []Envelope{mkEnvelope(KindDecodeEvent, "SONY", 3), mkEnvelope(KindTransmitRequest, "DAIKIN", 10)}
	a := codec.Encode(envs)
	var buf bytes.Buffer
	if _, err := codec.EncodeTo(&buf, envs); err != nil {
		t.Fatalf("EncodeTo error: %v", err)
	}
	if !bytes.Equal(a, buf.Bytes()) {
		t.Fatalf("Encode vs EncodeTo mismatch\nenc=% X\nencTo=% X", a, buf.Bytes())
	}
}

func TestWireprotoCodec_EncodeRejectsOversizeTag(t *testing.T) {
	codec := Codec{}
	big := make([]byte, 0x100)
	for i := range big {
		big[i] = 'a'
	}
	_, err := codec.EncodeTo(&bytes.Buffer{}, []Envelope{{Tag: string(big)}})
	if err == nil {
		t.Fatalf("expected error for oversize tag")
	}
}

func TestWireprotoCodec_DecodeErrors(t *testing.T) {
	codec := Codec{}

	// Truncated inside the tag (fewer tag bytes follow than declared).
	var trunc bytes.Buffer
	trunc.Write([]byte{byte(KindDecodeEvent), 4})
	trunc.WriteString("NE") // only 2 of 4 declared tag bytes
	if _, err := codec.Decode(&trunc); err == nil {
		t.Fatalf("expected truncated tag error")
	}

	// Truncated mid-summary.
	var truncSummary bytes.Buffer
	truncSummary.Write([]byte{byte(KindDecodeEvent), 3})
	truncSummary.WriteString("NEC")
	truncSummary.Write([]byte{0, 10}) // declares 10 summary bytes
	truncSummary.WriteString("short")
	if _, err := codec.Decode(&truncSummary); err == nil {
		t.Fatalf("expected truncated summary error")
	}

	// Clean EOF with nothing written at all.
	if _, err := codec.Decode(&bytes.Buffer{}); err != io.EOF {
		t.Fatalf("expected io.EOF on empty reader, got %v", err)
	}
}

func BenchmarkWireprotoCodec_Encode(b *testing.B) {
	codec := Codec{}
	envs := make([]Envelope, 64)
	for i := range envs {
		envs[i] = mkEnvelope(KindDecodeEvent, "NEC", 4)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = codec.Encode(envs)
	}
}

func BenchmarkWireprotoCodec_DecodeN(b *testing.B) {
	codec := Codec{}
	envs := make([]Envelope, 64)
	for i := range envs {
		envs[i] = mkEnvelope(KindDecodeEvent, "NEC", 4)
	}
	wire := codec.Encode(envs)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		r := bytes.NewReader(wire)
		_, _ = codec.DecodeN(r, 0, func(Envelope) {})
	}
}
