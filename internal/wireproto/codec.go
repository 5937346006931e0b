// Package wireproto implements the TCP relay protocol: the framing that
// carries decoded remote-control events out to subscribers, and carries
// transmit requests back in, over a single persistent connection.
package wireproto

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/lemonwave/ir-bridge/internal/metrics"
)

// Kind distinguishes the two envelope shapes carried by the protocol.
type Kind uint8

const (
	// KindDecodeEvent carries a capture the bridge has already decoded.
	KindDecodeEvent Kind = 1
	// KindTransmitRequest asks the bridge to forge and transmit a waveform.
	KindTransmitRequest Kind = 2
)

// Envelope is the single wire unit relayed in both directions.
type Envelope struct {
	Kind    Kind
	Tag     string
	Summary string
	Cycle   uint32
	SeqNo   uint64
	Payload []byte // TransmitRequest protocol parameters; empty for DecodeEvent
}

// ErrInvalidLength is returned when a field length exceeds its wire maximum.
var ErrInvalidLength = errors.New("wireproto: invalid length")

// ErrTruncatedFrame is returned when the stream ends mid-envelope.
var ErrTruncatedFrame = errors.New("wireproto: truncated frame")

// Codec encodes/decodes envelopes. Stateless and safe for concurrent use.
type Codec struct{}

// Encode packs envelopes into a single byte slice.
func (c *Codec) Encode(envs []Envelope) []byte {
	if len(envs) == 0 {
		return nil
	}
	var buf bytes.Buffer
	buf.Grow(len(envs) * 64)
	_, _ = c.EncodeTo(&buf, envs)
	return buf.Bytes()
}

// EncodeTo writes the wire representation of envs to w. Layout per envelope:
// 1-byte kind, 1-byte tag length, tag bytes, 2-byte BE summary length,
// summary bytes, 4-byte BE cycle, 8-byte BE seqno, 2-byte BE payload length,
// payload bytes.
func (c *Codec) EncodeTo(w io.Writer, envs []Envelope) (int, error) {
	var total int
	for _, e := range envs {
		if len(e.Tag) > 0xFF {
			return total, fmt.Errorf("wireproto encode tag: %w", ErrInvalidLength)
		}
		if len(e.Summary) > 0xFFFF || len(e.Payload) > 0xFFFF {
			return total, fmt.Errorf("wireproto encode body: %w", ErrInvalidLength)
		}

		hdr := []byte{byte(e.Kind), byte(len(e.Tag))}
		n, err := w.Write(hdr)
		total += n
		if err != nil {
			return total, fmt.Errorf("wireproto encode header: %w", err)
		}
		if n, err = io.WriteString(w, e.Tag); err != nil {
			total += n
			return total, fmt.Errorf("wireproto encode tag: %w", err)
		}
		total += n

		var lenbuf [2]byte
		binary.BigEndian.PutUint16(lenbuf[:], uint16(len(e.Summary)))
		if n, err = w.Write(lenbuf[:]); err != nil {
			total += n
			return total, fmt.Errorf("wireproto encode summary len: %w", err)
		}
		total += n
		if n, err = io.WriteString(w, e.Summary); err != nil {
			total += n
			return total, fmt.Errorf("wireproto encode summary: %w", err)
		}
		total += n

		var tail [12]byte
		binary.BigEndian.PutUint32(tail[0:4], e.Cycle)
		binary.BigEndian.PutUint64(tail[4:12], e.SeqNo)
		if n, err = w.Write(tail[:]); err != nil {
			total += n
			return total, fmt.Errorf("wireproto encode tail: %w", err)
		}
		total += n

		binary.BigEndian.PutUint16(lenbuf[:], uint16(len(e.Payload)))
		if n, err = w.Write(lenbuf[:]); err != nil {
			total += n
			return total, fmt.Errorf("wireproto encode payload len: %w", err)
		}
		total += n
		if len(e.Payload) > 0 {
			if n, err = w.Write(e.Payload); err != nil {
				total += n
				return total, fmt.Errorf("wireproto encode payload: %w", err)
			}
			total += n
		}
	}
	return total, nil
}

// Decode reads exactly one envelope from r.
func (c *Codec) Decode(r io.Reader) (Envelope, error) {
	var e Envelope
	var hdr [2]byte
	n, err := r.Read(hdr[:1])
	if err != nil {
		return e, err
	}
	if n == 0 {
		return e, io.EOF
	}
	if _, err := io.ReadFull(r, hdr[1:2]); err != nil {
		metrics.IncMalformed()
		return e, fmt.Errorf("wireproto decode header: %w", ErrTruncatedFrame)
	}
	e.Kind = Kind(hdr[0])
	tagLen := int(hdr[1])

	tagBuf := make([]byte, tagLen)
	if _, err := io.ReadFull(r, tagBuf); err != nil {
		metrics.IncMalformed()
		return e, fmt.Errorf("wireproto decode tag: %w", ErrTruncatedFrame)
	}
	e.Tag = string(tagBuf)

	var lenbuf [2]byte
	if _, err := io.ReadFull(r, lenbuf[:]); err != nil {
		metrics.IncMalformed()
		return e, fmt.Errorf("wireproto decode summary len: %w", ErrTruncatedFrame)
	}
	summaryLen := binary.BigEndian.Uint16(lenbuf[:])
	summaryBuf := make([]byte, summaryLen)
	if summaryLen > 0 {
		if _, err := io.ReadFull(r, summaryBuf); err != nil {
			metrics.IncMalformed()
			return e, fmt.Errorf("wireproto decode summary: %w", ErrTruncatedFrame)
		}
	}
	e.Summary = string(summaryBuf)

	var tail [12]byte
	if _, err := io.ReadFull(r, tail[:]); err != nil {
		metrics.IncMalformed()
		return e, fmt.Errorf("wireproto decode tail: %w", ErrTruncatedFrame)
	}
	e.Cycle = binary.BigEndian.Uint32(tail[0:4])
	e.SeqNo = binary.BigEndian.Uint64(tail[4:12])

	if _, err := io.ReadFull(r, lenbuf[:]); err != nil {
		metrics.IncMalformed()
		return e, fmt.Errorf("wireproto decode payload len: %w", ErrTruncatedFrame)
	}
	payloadLen := binary.BigEndian.Uint16(lenbuf[:])
	if payloadLen > 0 {
		e.Payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, e.Payload); err != nil {
			metrics.IncMalformed()
			return e, fmt.Errorf("wireproto decode payload: %w", ErrTruncatedFrame)
		}
	}
	return e, nil
}

// DecodeN decodes up to max envelopes (if max>0) or until EOF (if max<=0),
// invoking onEnvelope for each. It returns the count decoded and the
// terminal error (which can be io.EOF).
func (c *Codec) DecodeN(r io.Reader, max int, onEnvelope func(Envelope)) (int, error) {
	var n int
	for max <= 0 || n < max {
		e, err := c.Decode(r)
		if err != nil {
			return n, err
		}
		onEnvelope(e)
		n++
	}
	return n, nil
}

// DecodeStream decodes a single envelope, for callers that read one at a time.
func (c *Codec) DecodeStream(r io.Reader, onEnvelope func(Envelope)) error {
	e, err := c.Decode(r)
	if err != nil {
		return err
	}
	onEnvelope(e)
	return nil
}
