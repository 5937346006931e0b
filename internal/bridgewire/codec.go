// Package bridgewire implements the UART framing used to talk to the
// capture/transmit hardware: a fixed two-byte preamble, a kind byte, a
// 16-bit length, a payload, and an additive checksum.
package bridgewire

import (
	"bytes"
	"encoding/binary"

	"github.com/lemonwave/ir-bridge/internal/metrics"
)

// Kind distinguishes a captured waveform from a transmit command.
type Kind byte

const (
	// KindCapture carries a packed waveform read from the IR receiver.
	KindCapture Kind = 0x01
	// KindTransmit carries a packed waveform to emit on the IR LED.
	KindTransmit Kind = 0x02
)

const (
	preamble0 = 0xC1
	preamble1 = 0x12

	// header = 2 preamble + 1 kind + 2 length; +1 trailing checksum.
	headerLen = 5
	maxPayload = 4096
)

// Frame is one decoded bridge-link message.
type Frame struct {
	Kind    Kind
	Payload []byte
}

// Codec encodes/decodes bridge-link frames. Stateless and safe for
// concurrent use.
type Codec struct{}

// Encode builds the wire bytes for a single frame:
// [0xC1, 0x12, kind, len_hi, len_lo, payload..., checksum]
// where checksum is the low byte of the sum of every byte from kind through
// the end of payload.
func (Codec) Encode(f Frame) []byte {
	n := len(f.Payload)
	frame := make([]byte, headerLen+n+1)
	frame[0] = preamble0
	frame[1] = preamble1
	frame[2] = byte(f.Kind)
	frame[3] = byte(n >> 8)
	frame[4] = byte(n)

	var sum byte = frame[2] + frame[3] + frame[4]
	for i, b := range f.Payload {
		frame[5+i] = b
		sum += b
	}
	frame[5+n] = sum
	return frame
}

// CompactBuffer reclaims consumed prefix capacity when the underlying
// buffer grows too large relative to unread bytes.
func CompactBuffer(b *bytes.Buffer) bool {
	data := b.Bytes()
	if len(data) < 1024 {
		return false
	}
	if cap(data) > 0 && len(data)*4 < cap(data) {
		clone := make([]byte, len(data))
		copy(clone, data)
		b.Reset()
		_, _ = b.Write(clone)
		return true
	}
	return false
}

// DecodeStream reads from in and emits complete frames via out, resyncing
// past garbage or a bad checksum one byte at a time.
func (Codec) DecodeStream(in *bytes.Buffer, out func(Frame)) error {
	header := []byte{preamble0, preamble1}

	for {
		data := in.Bytes()
		_ = CompactBuffer(in)
		if len(data) < headerLen {
			return nil
		}

		i := bytes.Index(data, header)
		if i < 0 {
			if in.Len() > 1 {
				last := data[len(data)-1]
				in.Reset()
				_ = in.WriteByte(last)
			}
			return nil
		}
		if i > 0 {
			in.Next(i)
			continue
		}

		ln := int(data[3])<<8 | int(data[4])
		if ln > maxPayload {
			metrics.IncMalformed()
			in.Next(1)
			continue
		}

		req := headerLen + ln + 1
		if len(data) < req {
			return nil
		}

		var sum byte
		for _, b := range data[2 : req-1] {
			sum += b
		}
		if sum != data[req-1] {
			metrics.IncMalformed()
			in.Next(1)
			continue
		}

		payload := make([]byte, ln)
		copy(payload, data[5:5+ln])
		out(Frame{Kind: Kind(data[2]), Payload: payload})
		metrics.IncBridgeRx()
		in.Next(req)
	}
}
