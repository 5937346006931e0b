package formats

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/lemonwave/ir-bridge/internal/analyzer"
	"github.com/lemonwave/ir-bridge/internal/sumfmt"
	"github.com/lemonwave/ir-bridge/internal/waveform"
)

// KOIZUMI timing, microseconds. The frame carries a 9-bit command twice
// (once directly, once redundantly after a marker pulse); the decoder
// cross-checks the two copies when the second cycle ends.
const (
	koizLeaderHMin = 3300
	koizLeaderHMax = 3700
	koizLeaderLMin = 1600
	koizLeaderLMax = 1900
	koizDataMark   = 425
	koizDataHMin   = 300
	koizDataHMax   = 600
	koizZeroLMin   = 300
	koizZeroLMax   = 600
	koizOneLMin    = 1100
	koizOneLMax    = 1500
	koizMarkerMin  = 700
	koizMarkerMax  = 950

	koizTrailerLMin = 8000
	koizTrailerLMax = 150000
	koizCycleMin    = 15000
	koizCycleMax    = 150000

	koizDataLen = 2

	// bit positions at which a marker pulse is expected; any marker seen
	// elsewhere is malformed.
	koizMarkerPos1 = 9
	koizMarkerPos2 = 12

	// auxMarkerSpace flags that the space about to end was the one
	// following a just-recognized marker mark, so it carries no data bit.
	auxMarkerSpace = 2
)

// KoizumiConfig is the generic driver configuration for KOIZUMI.
var KoizumiConfig = &analyzer.Config{
	Tag:         "KOIZUMI",
	DataLen:     koizDataLen,
	LeaderHMin:  koizLeaderHMin,
	LeaderHMax:  koizLeaderHMax,
	LeaderLMin:  koizLeaderLMin,
	LeaderLMax:  koizLeaderLMax,
	TrailerLMin: koizTrailerLMin,
	TrailerLMax: koizTrailerLMax,
	CycleMin:    koizCycleMin,
	CycleMax:    koizCycleMax,
}

// KoizumiOps wires the KOIZUMI callbacks into the generic driver.
var KoizumiOps = &analyzer.Ops{
	OnFlipDn:   koizOnFlipDn,
	OnFlipUp:   koizOnFlipUp,
	OnEndCycle: koizOnEndCycle,
}

func koizOnFlipDn(a *analyzer.Analyzer) (analyzer.Token, error) {
	switch a.State {
	case analyzer.StateTrailer:
		if inRange(a.Dur, koizLeaderHMin, koizLeaderHMax) {
			a.Aux = 1
		} else {
			a.Aux = 0
		}
		return analyzer.TokenNone, nil
	case analyzer.StateData:
		if inRange(a.Dur, koizMarkerMin, koizMarkerMax) {
			if a.DstIdx != koizMarkerPos1 && a.DstIdx != koizMarkerPos2 {
				return analyzer.TokenNone, analyzer.ErrMarkerOutOfPosition
			}
			a.Aux = auxMarkerSpace
			return analyzer.TokenMarker, nil
		}
		if inRange(a.Dur, koizDataHMin, koizDataHMax) {
			a.Aux = 0
			return analyzer.TokenNone, nil
		}
	}
	return analyzer.TokenNone, analyzer.ErrTimingOutOfRange
}

func koizOnFlipUp(a *analyzer.Analyzer) (analyzer.Token, error) {
	switch a.State {
	case analyzer.StateTrailer:
		if a.Aux == 1 && inRange(a.Dur, koizLeaderLMin, koizLeaderLMax) {
			a.Aux = 0
			return analyzer.TokenLeader, nil
		}
		// Aux==0 (or a non-matching space) just means the mark we saw
		// while scanning for a leader wasn't one either; keep scanning.
		return analyzer.TokenNone, nil
	case analyzer.StateData:
		if a.Aux == auxMarkerSpace {
			a.Aux = 0
			return analyzer.TokenNone, nil
		}
		if inRange(a.Dur, koizZeroLMin, koizZeroLMax) {
			return analyzer.TokenData0, nil
		}
		if inRange(a.Dur, koizOneLMin, koizOneLMax) {
			return analyzer.TokenData1, nil
		}
	}
	return analyzer.TokenNone, analyzer.ErrTimingOutOfRange
}

// getBits reads n bits (n<=16) starting at bit offset start from a packed
// little-endian buffer, LSB-first, returning them as an int.
func getBits(buf []byte, start, n int) int {
	v := 0
	for i := 0; i < n; i++ {
		if waveform.GetBit(buf, start+i) != 0 {
			v |= 1 << uint(i)
		}
	}
	return v
}

// koizOnEndCycle has three distinct tiers, matched to the original tool:
// cycle 0 only stores the payload; cycle 1 cross-checks the two 9-bit
// command encodings within that single cycle and fails on disagreement;
// cycle 2+ falls back to a plain memcmp against the accumulated payload.
func koizOnEndCycle(a *analyzer.Analyzer, accum, tmp []byte, summary *strings.Builder) error {
	nbytes := (a.DstIdx + 7) / 8
	if nbytes > koizDataLen {
		nbytes = koizDataLen
	}

	switch a.Cycle {
	case 0:
		copy(accum, tmp[:koizDataLen])
		fmt.Fprintf(summary, "%s (%dbit)", sumfmt.HexReversed(tmp, nbytes), a.DstIdx)
		return nil
	case 1:
		cmdA := getBits(tmp, 0, 9)
		cmdB := getBits(tmp, koizMarkerPos1, 9)
		if cmdA != cmdB {
			return analyzer.ErrCyclePayloadDisagreement
		}
		fmt.Fprintf(summary, " cmd=%03x", cmdA)
		return nil
	default:
		if !bytes.Equal(accum[:nbytes], tmp[:nbytes]) {
			return analyzer.ErrCyclePayloadDisagreement
		}
		return nil
	}
}
