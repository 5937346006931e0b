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

// AEHA timing, microseconds. The format is also known as "Panasonic/Kaseikyo
// family"; data_len is fixed at 18 bytes (144 bits).
const (
	aehaLeaderHMin = 3000
	aehaLeaderHMax = 4000
	aehaLeaderLMin = 1500
	aehaLeaderLMax = 2000
	aehaDataMark   = 425
	aehaDataHMin   = 300
	aehaDataHMax   = 600
	aehaZeroLMin   = 300
	aehaZeroLMax   = 600
	aehaOneLMin    = 1100
	aehaOneLMax    = 1500

	aehaTrailerLMin = 8000
	aehaTrailerLMax = 150000
	// aehaCycleMin is 0 ("no condition" in the original tool): a cycle's
	// actual length already exceeds any plausible minimum by construction.
	aehaCycleMin = 0
	aehaCycleMax = 150000
	// aehaTrailerLTyp is the fixed low time ForgeAEHA pads each cycle with.
	aehaTrailerLTyp = 20000

	aehaDataLen = 18
)

// AEHAConfig is the generic driver configuration for AEHA.
var AEHAConfig = &analyzer.Config{
	Tag:         "AEHA",
	DataLen:     aehaDataLen,
	LeaderHMin:  aehaLeaderHMin,
	LeaderHMax:  aehaLeaderHMax,
	LeaderLMin:  aehaLeaderLMin,
	LeaderLMax:  aehaLeaderLMax,
	TrailerLMin: aehaTrailerLMin,
	TrailerLMax: aehaTrailerLMax,
	CycleMin:    aehaCycleMin,
	CycleMax:    aehaCycleMax,
}

// AEHAOps wires the AEHA callbacks into the generic driver.
var AEHAOps = &analyzer.Ops{
	OnFlipDn:   aehaOnFlipDn,
	OnFlipUp:   aehaOnFlipUp,
	OnEndCycle: aehaOnEndCycle,
}

func aehaOnFlipDn(a *analyzer.Analyzer) (analyzer.Token, error) {
	switch a.State {
	case analyzer.StateTrailer:
		if inRange(a.Dur, aehaLeaderHMin, aehaLeaderHMax) {
			a.Aux = 1
		} else {
			a.Aux = 0
		}
		return analyzer.TokenNone, nil
	case analyzer.StateData:
		if inRange(a.Dur, aehaDataHMin, aehaDataHMax) {
			return analyzer.TokenNone, nil
		}
	}
	return analyzer.TokenNone, analyzer.ErrTimingOutOfRange
}

func aehaOnFlipUp(a *analyzer.Analyzer) (analyzer.Token, error) {
	switch a.State {
	case analyzer.StateTrailer:
		if a.Aux == 1 && inRange(a.Dur, aehaLeaderLMin, aehaLeaderLMax) {
			a.Aux = 0
			return analyzer.TokenLeader, nil
		}
		// Aux==0 (or a non-matching space) just means the mark we saw
		// while scanning for a leader wasn't one either; keep scanning.
		return analyzer.TokenNone, nil
	case analyzer.StateData:
		if inRange(a.Dur, aehaZeroLMin, aehaZeroLMax) {
			return analyzer.TokenData0, nil
		}
		if inRange(a.Dur, aehaOneLMin, aehaOneLMax) {
			return analyzer.TokenData1, nil
		}
	}
	return analyzer.TokenNone, analyzer.ErrTimingOutOfRange
}

// aehaOnEndCycle never fails the decode on a cycle disagreement: the parity
// nibble and cross-cycle comparison are diagnostic only, appended to the
// summary as an alternate reading rather than aborting (this mirrors the
// original tool, which trusts the first successfully leadered cycle).
func aehaOnEndCycle(a *analyzer.Analyzer, accum, tmp []byte, summary *strings.Builder) error {
	if a.Cycle == 0 {
		fmt.Fprintf(summary, "%s parity=%v", sumfmt.HexReversed(tmp, aehaDataLen), sumfmt.ParityNibbleOK(tmp))
		copy(accum, tmp[:aehaDataLen])
		return nil
	}
	if !bytes.Equal(accum[:aehaDataLen], tmp[:aehaDataLen]) {
		fmt.Fprintf(summary, " alt=%s", sumfmt.HexReversed(tmp, aehaDataLen))
	}
	return nil
}

// ForgeAEHA synthesizes an AEHA waveform for the given 144-bit payload
// (aehaDataLen bytes, bit 0 first), emitted twice, each repeat terminated
// by a fixed aehaTrailerLTyp low gap. One 144-bit cycle is longer than half
// of the fixed buffer, so the second repeat is always cut off at the
// buffer's end: only the first cycle decodes.
func ForgeAEHA(payload []byte) waveform.Buffer {
	buf := waveform.NewBuffer(waveform.FixedSize * 8)
	f := forge.New(buf.Bytes, buf.Samples)

	for rep := 0; rep < 2; rep++ {
		f.EmitPulse(aehaLeaderHMin+(aehaLeaderHMax-aehaLeaderHMin)/2, aehaLeaderLMin+(aehaLeaderLMax-aehaLeaderLMin)/2)
		f.EmitBits(payload, aehaDataLen*8, aehaZeroBit, aehaOneBit)
		f.EmitDur(1, aehaDataMark)
		f.EmitDur(0, aehaTrailerLTyp)
	}
	return buf
}

func aehaZeroBit(f *forge.Forger) {
	f.EmitPulse(aehaDataMark, aehaZeroLMin+(aehaZeroLMax-aehaZeroLMin)/2)
}
func aehaOneBit(f *forge.Forger) {
	f.EmitPulse(aehaDataMark, aehaOneLMin+(aehaOneLMax-aehaOneLMin)/2)
}
