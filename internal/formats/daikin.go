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

// DAIKIN timing, microseconds. Same mark/space family as AEHA but with a
// shorter, variable-length payload (40 to 80 bits) and its own leader window.
const (
	daikinLeaderHMin = 4500
	daikinLeaderHMax = 5500
	daikinLeaderLMin = 1500
	daikinLeaderLMax = 2200
	daikinDataMark   = 425
	daikinDataHMin   = 300
	daikinDataHMax   = 500
	daikinZeroLMin   = 300
	daikinZeroLMax   = 600
	daikinOneLMin    = 1100
	daikinOneLMax    = 1500

	daikinTrailerLMin = 8000
	daikinTrailerLMax = 150000
	// daikinCycleMin is 0 ("no condition" in the original tool): a cycle's
	// actual length already exceeds any plausible minimum by construction.
	daikinCycleMin = 0
	daikinCycleMax = 150000
	// daikinTrailerLTyp is the fixed low time ForgeDaikin pads the cycle with.
	daikinTrailerLTyp = 30000

	daikinDataLen   = 10
	daikinBitLenMin = 40
	daikinBitLenMax = 80
)

// DaikinConfig is the generic driver configuration for DAIKIN.
var DaikinConfig = &analyzer.Config{
	Tag:         "DAIKIN",
	DataLen:     daikinDataLen,
	LeaderHMin:  daikinLeaderHMin,
	LeaderHMax:  daikinLeaderHMax,
	LeaderLMin:  daikinLeaderLMin,
	LeaderLMax:  daikinLeaderLMax,
	TrailerLMin: daikinTrailerLMin,
	TrailerLMax: daikinTrailerLMax,
	CycleMin:    daikinCycleMin,
	CycleMax:    daikinCycleMax,
}

// DaikinOps wires the DAIKIN callbacks into the generic driver.
var DaikinOps = &analyzer.Ops{
	OnFlipDn:   daikinOnFlipDn,
	OnFlipUp:   daikinOnFlipUp,
	OnEndCycle: daikinOnEndCycle,
}

func daikinOnFlipDn(a *analyzer.Analyzer) (analyzer.Token, error) {
	switch a.State {
	case analyzer.StateTrailer:
		if inRange(a.Dur, daikinLeaderHMin, daikinLeaderHMax) {
			a.Aux = 1
		} else {
			a.Aux = 0
		}
		return analyzer.TokenNone, nil
	case analyzer.StateData:
		if inRange(a.Dur, daikinDataHMin, daikinDataHMax) {
			return analyzer.TokenNone, nil
		}
	}
	return analyzer.TokenNone, analyzer.ErrTimingOutOfRange
}

func daikinOnFlipUp(a *analyzer.Analyzer) (analyzer.Token, error) {
	switch a.State {
	case analyzer.StateTrailer:
		if a.Aux == 1 && inRange(a.Dur, daikinLeaderLMin, daikinLeaderLMax) {
			a.Aux = 0
			return analyzer.TokenLeader, nil
		}
		// Aux==0 (or a non-matching space) just means the mark we saw
		// while scanning for a leader wasn't one either; keep scanning.
		return analyzer.TokenNone, nil
	case analyzer.StateData:
		if inRange(a.Dur, daikinZeroLMin, daikinZeroLMax) {
			return analyzer.TokenData0, nil
		}
		if inRange(a.Dur, daikinOneLMin, daikinOneLMax) {
			return analyzer.TokenData1, nil
		}
	}
	return analyzer.TokenNone, analyzer.ErrTimingOutOfRange
}

// daikinOnEndCycle mirrors aehaOnEndCycle: parity and cross-cycle agreement
// are diagnostic only, never a decode failure. DstIdx at trailer time gives
// the actual bit count, which varies cycle to cycle within [40,80].
func daikinOnEndCycle(a *analyzer.Analyzer, accum, tmp []byte, summary *strings.Builder) error {
	nbytes := (a.DstIdx + 7) / 8
	if nbytes > daikinDataLen {
		nbytes = daikinDataLen
	}
	if a.Cycle == 0 {
		fmt.Fprintf(summary, "%s (%dbit) parity=%v", sumfmt.HexReversed(tmp, nbytes), a.DstIdx, sumfmt.ParityNibbleOK(tmp))
		copy(accum, tmp[:daikinDataLen])
		return nil
	}
	if !bytes.Equal(accum[:nbytes], tmp[:nbytes]) {
		fmt.Fprintf(summary, " alt=%s", sumfmt.HexReversed(tmp, nbytes))
	}
	return nil
}

// ForgeDaikin synthesizes a DAIKIN waveform for the given payload of nbits
// bits (clamped to [daikinBitLenMin, daikinBitLenMax]).
func ForgeDaikin(payload []byte, nbits int) waveform.Buffer {
	if nbits < daikinBitLenMin {
		nbits = daikinBitLenMin
	}
	if nbits > daikinBitLenMax {
		nbits = daikinBitLenMax
	}
	buf := waveform.NewBuffer(waveform.FixedSize * 8)
	f := forge.New(buf.Bytes, buf.Samples)

	f.EmitPulse(daikinLeaderHMin+(daikinLeaderHMax-daikinLeaderHMin)/2, daikinLeaderLMin+(daikinLeaderLMax-daikinLeaderLMin)/2)
	f.EmitBits(payload, nbits, daikinZeroBit, daikinOneBit)
	f.EmitDur(1, daikinDataMark)
	f.EmitDur(0, daikinTrailerLTyp)

	return buf
}

func daikinZeroBit(f *forge.Forger) {
	f.EmitPulse(daikinDataMark, daikinZeroLMin+(daikinZeroLMax-daikinZeroLMin)/2)
}
func daikinOneBit(f *forge.Forger) {
	f.EmitPulse(daikinDataMark, daikinOneLMin+(daikinOneLMax-daikinOneLMin)/2)
}
