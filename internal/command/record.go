// Package command persists decoded remote-control commands so they can be
// replayed later: a BinaryCodec for the bridge's own on-device record
// format, and a Store for the richer host-side database.
package command

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// tagLen is the fixed width of a command's human-assigned name.
const tagLen = 32

// fixedDataLen is the payload size of a fixed-size record: one waveform.FixedSize buffer.
const fixedDataLen = 240

// ErrRecordInvalid marks a record whose first two bytes are both zero,
// the on-device convention for "slot erased".
var ErrRecordInvalid = errors.New("command: record invalid")

// ErrTagTooLong is returned when a tag does not fit in tagLen bytes.
var ErrTagTooLong = errors.New("command: tag too long")

// ErrRecordTruncated is returned when a buffer is shorter than its declared record.
var ErrRecordTruncated = errors.New("command: record truncated")

// Record is one decoded command, ready for either wire representation.
type Record struct {
	Tag  string
	Data []byte
}

// BinaryCodec encodes/decodes the on-device persisted record formats
// described by the bridge's original data layout: a fixed-size record
// (used by the device's fixed 240-byte capture slots) and a variable-size
// record (used once captures grew past that bound).
type BinaryCodec struct{}

func packTag(tag string) ([tagLen]byte, error) {
	var out [tagLen]byte
	if len(tag) > tagLen {
		return out, ErrTagTooLong
	}
	copy(out[:], tag)
	return out, nil
}

// EncodeFixed writes a fixed-size record: tag[32] + data[240]. data longer
// than fixedDataLen is truncated; shorter is zero-padded.
func (BinaryCodec) EncodeFixed(r Record) ([]byte, error) {
	tag, err := packTag(r.Tag)
	if err != nil {
		return nil, err
	}
	out := make([]byte, tagLen+fixedDataLen)
	copy(out, tag[:])
	n := len(r.Data)
	if n > fixedDataLen {
		n = fixedDataLen
	}
	copy(out[tagLen:], r.Data[:n])
	return out, nil
}

// DecodeFixed reads a fixed-size record. A record whose first two bytes are
// both zero is reported as ErrRecordInvalid (an erased slot), matching the
// device's own invalidation convention.
func (BinaryCodec) DecodeFixed(buf []byte) (Record, error) {
	if len(buf) < tagLen+fixedDataLen {
		return Record{}, ErrRecordTruncated
	}
	if buf[0] == 0 && buf[1] == 0 {
		return Record{}, ErrRecordInvalid
	}
	data := make([]byte, fixedDataLen)
	copy(data, buf[tagLen:tagLen+fixedDataLen])
	return Record{
		Tag:  string(bytes.TrimRight(buf[:tagLen], "\x00")),
		Data: data,
	}, nil
}

// EncodeVariable writes a variable-size record:
// dummy(1)=0, type(1)=1, len[2] big-endian, tag[32], data[len].
func (BinaryCodec) EncodeVariable(r Record) ([]byte, error) {
	tag, err := packTag(r.Tag)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 4+tagLen+len(r.Data))
	out[0] = 0 // dummy
	out[1] = 1 // type
	binary.BigEndian.PutUint16(out[2:4], uint16(len(r.Data)))
	copy(out[4:4+tagLen], tag[:])
	copy(out[4+tagLen:], r.Data)
	return out, nil
}

// DecodeVariable reads a variable-size record. Invalidation uses the same
// first-two-bytes-zero convention (dummy=0, type=0 would read as all-zero).
func (BinaryCodec) DecodeVariable(buf []byte) (Record, error) {
	if len(buf) < 4+tagLen {
		return Record{}, ErrRecordTruncated
	}
	if buf[0] == 0 && buf[1] == 0 {
		return Record{}, ErrRecordInvalid
	}
	ln := int(binary.BigEndian.Uint16(buf[2:4]))
	if len(buf) < 4+tagLen+ln {
		return Record{}, ErrRecordTruncated
	}
	data := make([]byte, ln)
	copy(data, buf[4+tagLen:4+tagLen+ln])
	return Record{
		Tag:  string(bytes.TrimRight(buf[4:4+tagLen], "\x00")),
		Data: data,
	}, nil
}
