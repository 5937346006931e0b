package formats

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/lemonwave/ir-bridge/internal/analyzer"
	"github.com/lemonwave/ir-bridge/internal/forge"
	"github.com/lemonwave/ir-bridge/internal/sumfmt"
	"github.com/lemonwave/ir-bridge/internal/waveform"
)

// SONY timing, microseconds. Unlike NEC/AEHA/DAIKIN, the bit value lives in
// the mark length, not the following space: the space between bits is fixed.
const (
	sonyLeaderHMin = 2200
	sonyLeaderHMax = 2700
	sonyLeaderLMin = 450
	sonyLeaderLMax = 750
	sonySpaceFixed = 600
	sonyDataLMin   = 400
	sonyDataLMax   = 800
	sonyZeroHMin   = 450
	sonyZeroHMax   = 750
	sonyOneHMin    = 1050
	sonyOneHMax    = 1350

	sonyTrailerLMin = 10000
	sonyTrailerLMax = 150000
	sonyCycleMin    = 25000
	sonyCycleMax    = 150000
	// sonyCycleTyp is the frame period ForgeSony pads each repeat to, long
	// enough for the trailer space to reach sonyTrailerLMin.
	sonyCycleTyp = 45000

	sonyDataLen   = 3 // bytes; SONY frames run 12, 15 or 20 bits
	sonyBitLen12  = 12
	sonyBitLen15  = 15
	sonyBitLen20  = 20
)

// SonyConfig is the generic driver configuration for SONY.
var SonyConfig = &analyzer.Config{
	Tag:         "SONY",
	DataLen:     sonyDataLen,
	LeaderHMin:  sonyLeaderHMin,
	LeaderHMax:  sonyLeaderHMax,
	LeaderLMin:  sonyLeaderLMin,
	LeaderLMax:  sonyLeaderLMax,
	TrailerLMin: sonyTrailerLMin,
	TrailerLMax: sonyTrailerLMax,
	CycleMin:    sonyCycleMin,
	CycleMax:    sonyCycleMax,
}

// SonyOps wires the SONY callbacks into the generic driver.
var SonyOps = &analyzer.Ops{
	OnFlipDn:   sonyOnFlipDn,
	OnFlipUp:   sonyOnFlipUp,
	OnEndCycle: sonyOnEndCycle,
}

func sonyOnFlipDn(a *analyzer.Analyzer) (analyzer.Token, error) {
	switch a.State {
	case analyzer.StateTrailer:
		if inRange(a.Dur, sonyLeaderHMin, sonyLeaderHMax) {
			a.Aux = 1
		} else {
			a.Aux = 0
		}
		return analyzer.TokenNone, nil
	case analyzer.StateData:
		if inRange(a.Dur, sonyZeroHMin, sonyZeroHMax) {
			return analyzer.TokenData0, nil
		}
		if inRange(a.Dur, sonyOneHMin, sonyOneHMax) {
			return analyzer.TokenData1, nil
		}
	}
	return analyzer.TokenNone, analyzer.ErrTimingOutOfRange
}

func sonyOnFlipUp(a *analyzer.Analyzer) (analyzer.Token, error) {
	switch a.State {
	case analyzer.StateTrailer:
		if a.Aux == 1 && inRange(a.Dur, sonyLeaderLMin, sonyLeaderLMax) {
			a.Aux = 0
			return analyzer.TokenLeader, nil
		}
		// Aux==0 (or a non-matching space) just means the mark we saw
		// while scanning for a leader wasn't one either; keep scanning.
		return analyzer.TokenNone, nil
	case analyzer.StateData:
		if inRange(a.Dur, sonyDataLMin, sonyDataLMax) {
			return analyzer.TokenNone, nil
		}
	}
	return analyzer.TokenNone, analyzer.ErrTimingOutOfRange
}

// sonyOnEndCycle fails the decode outright on a cross-cycle disagreement,
// unlike AEHA/DAIKIN's diagnostic-only comparison.
func sonyOnEndCycle(a *analyzer.Analyzer, accum, tmp []byte, summary *strings.Builder) error {
	nbytes := (a.DstIdx + 7) / 8
	if nbytes > sonyDataLen {
		nbytes = sonyDataLen
	}
	if a.Cycle == 0 {
		fmt.Fprintf(summary, "%s (%dbit)", sumfmt.HexReversed(tmp, nbytes), a.DstIdx)
		copy(accum, tmp[:sonyDataLen])
		return nil
	}
	if !bytes.Equal(accum[:nbytes], tmp[:nbytes]) {
		return analyzer.ErrCyclePayloadDisagreement
	}
	return nil
}

// ForgeSony synthesizes a SONY waveform for payload, choosing the shortest
// of the standard 12/15/20-bit frame lengths that fits nbits, repeated three
// times as three independent cycles.
func ForgeSony(payload []byte, nbits int) waveform.Buffer {
	switch {
	case nbits <= sonyBitLen12:
		nbits = sonyBitLen12
	case nbits <= sonyBitLen15:
		nbits = sonyBitLen15
	default:
		nbits = sonyBitLen20
	}

	buf := waveform.NewBuffer(waveform.FixedSize * 8)
	f := forge.New(buf.Bytes, buf.Samples)

	for rep := 0; rep < 3; rep++ {
		cycleStart := f.T()
		f.EmitPulse(sonyLeaderHMin+(sonyLeaderHMax-sonyLeaderHMin)/2, sonyLeaderLMin+(sonyLeaderLMax-sonyLeaderLMin)/2)
		f.EmitBits(payload, nbits, sonyZeroBit, sonyOneBit)
		f.EmitUntil(0, cycleStart+sonyCycleTyp)
	}
	return buf
}

func sonyZeroBit(f *forge.Forger) {
	f.EmitPulse(sonyZeroHMin+(sonyZeroHMax-sonyZeroHMin)/2, sonySpaceFixed)
}
func sonyOneBit(f *forge.Forger) {
	f.EmitPulse(sonyOneHMin+(sonyOneHMax-sonyOneHMin)/2, sonySpaceFixed)
}
