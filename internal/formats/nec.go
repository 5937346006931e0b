package formats

import (
	"fmt"
	"strings"

	"github.com/lemonwave/ir-bridge/internal/analyzer"
	"github.com/lemonwave/ir-bridge/internal/forge"
	"github.com/lemonwave/ir-bridge/internal/sumfmt"
	"github.com/lemonwave/ir-bridge/internal/waveform"
)

// NEC timing, all in microseconds. Data bit marks are a fixed width; the
// following space's length is what carries the bit.
const (
	necLeaderHMin = 8000
	necLeaderHMax = 10000
	necLeaderLMin = 4000
	necLeaderLMax = 5000
	necRepeatLMin = 2100
	necRepeatLMax = 2400
	necDataMark   = 560
	necDataHMin   = 500
	necDataHMax   = 620
	necZeroLMin   = 400
	necZeroLMax   = 800
	necOneLMin    = 1400
	necOneLMax   = 1900
	necStopMark   = 560

	necTrailerLMin = 36000
	necTrailerLMax = 150000
	necCycleMin    = 80000
	necCycleMax    = 150000
	// necCycleTyp is the frame period ForgeNEC pads the main frame to, long
	// enough for the trailer space to reach necTrailerLMin before the repeat.
	necCycleTyp = 108000
)

// NECConfig is the generic driver configuration for NEC.
var NECConfig = &analyzer.Config{
	Tag:         "NEC",
	DataLen:     4,
	LeaderHMin:  necLeaderHMin,
	LeaderHMax:  necLeaderHMax,
	LeaderLMin:  necLeaderLMin,
	LeaderLMax:  necLeaderLMax,
	TrailerLMin: necTrailerLMin,
	TrailerLMax: necTrailerLMax,
	CycleMin:    necCycleMin,
	CycleMax:    necCycleMax,
}

func inRange(v, lo, hi int) bool { return v >= lo && v <= hi }

// NECOps wires the NEC callbacks into the generic driver.
var NECOps = &analyzer.Ops{
	OnFlipDn:   necOnFlipDn,
	OnFlipUp:   necOnFlipUp,
	OnEndCycle: necOnEndCycle,
}

func necOnFlipDn(a *analyzer.Analyzer) (analyzer.Token, error) {
	switch a.State {
	case analyzer.StateTrailer:
		if inRange(a.Dur, necLeaderHMin, necLeaderHMax) {
			a.Aux = 1
		} else {
			a.Aux = 0
		}
		return analyzer.TokenNone, nil
	case analyzer.StateRepeater:
		if inRange(a.Dur, necDataHMin, necDataHMax) {
			return analyzer.TokenRepeaterH, nil
		}
	case analyzer.StateData:
		if inRange(a.Dur, necDataHMin, necDataHMax) {
			return analyzer.TokenNone, nil
		}
	}
	return analyzer.TokenNone, analyzer.ErrTimingOutOfRange
}

func necOnFlipUp(a *analyzer.Analyzer) (analyzer.Token, error) {
	switch a.State {
	case analyzer.StateTrailer:
		if a.Aux == 1 && inRange(a.Dur, necLeaderLMin, necLeaderLMax) {
			a.Aux = 0
			return analyzer.TokenLeader, nil
		}
		if a.Aux == 1 && inRange(a.Dur, necRepeatLMin, necRepeatLMax) {
			a.Aux = 0
			return analyzer.TokenRepeaterL, nil
		}
		// Aux==0 (or a non-matching space) just means the mark we saw
		// while scanning for a leader wasn't one either; keep scanning.
		return analyzer.TokenNone, nil
	case analyzer.StateData:
		if inRange(a.Dur, necZeroLMin, necZeroLMax) {
			return analyzer.TokenData0, nil
		}
		if inRange(a.Dur, necOneLMin, necOneLMax) {
			return analyzer.TokenData1, nil
		}
	}
	return analyzer.TokenNone, analyzer.ErrTimingOutOfRange
}

func necOnEndCycle(a *analyzer.Analyzer, accum, tmp []byte, summary *strings.Builder) error {
	custom := sumfmt.HexReversed(tmp, 2)
	cmd := tmp[2]
	cmdInv := tmp[3]
	if cmd != ^cmdInv {
		return analyzer.ErrNecDataInconsistent
	}
	fmt.Fprintf(summary, "custom=%s cmd=%02x", custom, cmd)
	copy(accum, tmp[:4])
	return nil
}

// ForgeNEC synthesizes the standard NEC waveform for the given custom code
// and command byte, followed by the abbreviated repeat frame.
func ForgeNEC(custom uint16, cmd uint8) waveform.Buffer {
	buf := waveform.NewBuffer(waveform.FixedSize * 8)
	f := forge.New(buf.Bytes, buf.Samples)

	cycleStart := f.T()
	f.EmitPulse(necLeaderHMin+(necLeaderHMax-necLeaderHMin)/2, necLeaderLMin+(necLeaderLMax-necLeaderLMin)/2)

	custLo := byte(custom)
	custHi := byte(custom >> 8)
	data := []byte{custLo, custHi, cmd, ^cmd}
	f.EmitBits(data, 32, necZeroBit, necOneBit)

	f.EmitDur(1, necStopMark)
	f.EmitUntil(0, cycleStart+necCycleTyp)

	f.EmitPulse(necLeaderHMin+(necLeaderHMax-necLeaderHMin)/2, necRepeatLMin+(necRepeatLMax-necRepeatLMin)/2)
	f.EmitDur(1, necStopMark)

	return buf
}

func necZeroBit(f *forge.Forger) { f.EmitPulse(necDataMark, necZeroLMin+(necZeroLMax-necZeroLMin)/2) }
func necOneBit(f *forge.Forger)  { f.EmitPulse(necDataMark, necOneLMin+(necOneLMax-necOneLMin)/2) }
