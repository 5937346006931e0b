// Package forge implements the IR waveform synthesizer: it accumulates
// alternating mark/space durations into a packed-bit waveform buffer at the
// bridge's 100us sample granularity.
package forge

import "github.com/lemonwave/ir-bridge/internal/waveform"

// Forger accumulates emitted mark/space durations into a waveform buffer.
// t is the "already emitted" time cursor in microseconds; tFlip is the next
// transition target. Zero value is not usable; construct with New.
type Forger struct {
	t, tFlip uint64
	buf      []byte
	bufLen   int // in samples (bits)
}

// New zeroes buf and returns a Forger ready to emit from t=0.
// bufLen is the capacity in samples (bits); emits past it are dropped.
func New(buf []byte, bufLen int) *Forger {
	for i := range buf {
		buf[i] = 0
	}
	return &Forger{buf: buf, bufLen: bufLen}
}

// T returns the current emitted-time cursor in microseconds.
func (f *Forger) T() uint64 { return f.t }

// EmitDur advances the flip target by duration and fills samples at level
// until the cursor catches up. A duration that would run past the buffer's
// capacity simply stops writing; the synth functions are sized to fit.
func (f *Forger) EmitDur(level int, duration int) {
	f.tFlip += uint64(duration)
	for f.t < f.tFlip {
		idx := int(f.t / waveform.Tick)
		if idx >= f.bufLen {
			f.t = f.tFlip
			break
		}
		if level != 0 {
			waveform.SetBit(f.buf, idx)
		}
		f.t += waveform.Tick
	}
}

// EmitUntil sets the flip target to an absolute time and fills to it,
// used to pad a cycle out to its total length.
func (f *Forger) EmitUntil(level int, absoluteTime uint64) {
	f.tFlip = absoluteTime
	for f.t < f.tFlip {
		idx := int(f.t / waveform.Tick)
		if idx >= f.bufLen {
			f.t = f.tFlip
			break
		}
		if level != 0 {
			waveform.SetBit(f.buf, idx)
		}
		f.t += waveform.Tick
	}
}

// EmitPulse emits a mark of highLen followed by a space of lowLen.
func (f *Forger) EmitPulse(highLen, lowLen int) {
	f.EmitDur(1, highLen)
	f.EmitDur(0, lowLen)
}

// EmitBits emits one pulse per bit of data (LSB-first within each byte,
// byte 0 first), choosing the zero or one pulse shape per bit.
func (f *Forger) EmitBits(data []byte, nbits int, zero, one func(*Forger)) {
	for idx := 0; idx < nbits; idx++ {
		if waveform.GetBit(data, idx) != 0 {
			one(f)
		} else {
			zero(f)
		}
	}
}
