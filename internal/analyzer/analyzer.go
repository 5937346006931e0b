// Package analyzer implements the generic IR waveform analyzer driver: it
// walks a packed-bit buffer as a time series of 100us samples, tracks run
// durations, drives a small protocol state machine, and dispatches to
// per-format callbacks supplied by internal/formats.
package analyzer

import (
	"strings"

	"github.com/lemonwave/ir-bridge/internal/waveform"
)

// DataLenMax is the largest decoded payload the driver will accept.
const DataLenMax = 64

// State is the analyzer's protocol phase.
type State int

const (
	StateLeader State = iota
	StateData
	StateTrailer
	StateMarker
	StateRepeater
)

// Token is the classification a format callback hands back to the driver.
type Token int

const (
	TokenNone Token = iota
	TokenData0
	TokenData1
	TokenLeader
	TokenTrailer
	TokenMarker
	TokenRepeaterL
	TokenRepeaterH
)

// Config holds the static per-protocol timing acceptance windows, all in
// microseconds, plus the protocol tag and decoded payload length.
type Config struct {
	Tag            string
	DataLen        int // decoded payload length in bytes
	LeaderHMin     int
	LeaderHMax     int
	LeaderLMin     int
	LeaderLMax     int
	TrailerLMin    int
	TrailerLMax    int
	CycleMin       int
	CycleMax       int
}

// Callback classifies a just-ended (on flip) or in-progress (on each
// sample) run. A non-nil error abandons the current decode attempt.
type Callback func(a *Analyzer) (Token, error)

// EndCycleFunc assembles the human-readable summary when a cycle completes.
// accum holds the previous cycle's payload (for mismatch comparison), tmp
// the just-decoded payload; implementations copy tmp into accum as needed.
type EndCycleFunc func(a *Analyzer, accum []byte, tmp []byte, summary *strings.Builder) error

// ExitFunc runs once after the sweep, when at least one cycle was decoded.
type ExitFunc func(a *Analyzer, payload []byte, summary *strings.Builder) error

// Ops is the capability set a format module supplies to the driver.
type Ops struct {
	OnFlipUp     Callback // previous level was 0 (a mark just ended a space)
	OnFlipDn     Callback // previous level was 1 (a space just ended a mark)
	OnEachSample Callback // optional: classify on the in-progress run
	OnEndCycle   EndCycleFunc
	OnExit       ExitFunc // optional
}

// Analyzer is the transient, stack-local state of one decode attempt.
type Analyzer struct {
	Cfg *Config
	Ops *Ops

	State    State
	Level    byte
	Dur      int
	DurPrev  int
	DurCycle int
	SrcIdx   int
	DstIdx   int
	Cycle    int

	// Aux is free scratch space for a format module to carry a classification
	// decision from one callback to the next (e.g. "saw a leader-range mark,
	// waiting on the matching space"). The driver never reads or resets it.
	Aux int
}

func newAnalyzer(cfg *Config, ops *Ops) *Analyzer {
	return &Analyzer{
		Cfg:      cfg,
		Ops:      ops,
		State:    StateTrailer,
		Level:    0,
		Dur:      cfg.TrailerLMin,
		DurPrev:  0,
		DurCycle: cfg.CycleMin,
	}
}

func (a *Analyzer) onBitDetected(buf []byte, bit byte) error {
	if a.DstIdx == DataLenMax*8 {
		return ErrPayloadOverflow
	}
	if bit != 0 {
		waveform.SetBit(buf, a.DstIdx)
	}
	return nil
}

func (a *Analyzer) onFlipped() (Token, error) {
	if a.Level == 0 {
		return a.Ops.OnFlipUp(a)
	}
	return a.Ops.OnFlipDn(a)
}

func (a *Analyzer) tryDetectTrailer() Token {
	if a.Level == 0 && a.State == StateData &&
		a.Dur >= a.Cfg.TrailerLMin && a.DurCycle >= a.Cfg.CycleMin {
		return TokenTrailer
	}
	return TokenNone
}

func (a *Analyzer) onEachSample() (Token, error) {
	if tok := a.tryDetectTrailer(); tok != TokenNone {
		return tok, nil
	}
	if a.Ops.OnEachSample != nil {
		return a.Ops.OnEachSample(a)
	}
	return TokenNone, nil
}

// Run decodes one format attempt against buf (sampleCount significant bits).
// On success it returns the protocol tag and its human-readable summary.
func Run(cfg *Config, ops *Ops, buf []byte, sampleCount int) (tag string, summary string, err error) {
	a := newAnalyzer(cfg, ops)
	payload := make([]byte, DataLenMax)
	payloadTmp := make([]byte, DataLenMax)
	var dst strings.Builder

	handleToken := func(tok Token, dat byte) error {
		switch tok {
		case TokenLeader:
			a.State = StateData
			a.DstIdx = 0
			a.DurCycle = a.DurPrev + a.Dur
			clear(payloadTmp)
		case TokenTrailer:
			if err := ops.OnEndCycle(a, payload, payloadTmp, &dst); err != nil {
				return err
			}
			a.Cycle++
			a.State = StateTrailer
		case TokenMarker:
			// punctuation only, no payload effect
		case TokenRepeaterL:
			a.State = StateRepeater
		case TokenRepeaterH:
			a.State = StateTrailer
		case TokenData0, TokenData1:
			if err := a.onBitDetected(payloadTmp, dat); err != nil {
				return err
			}
			a.DstIdx++
		}
		return nil
	}

	for a.SrcIdx = 0; a.SrcIdx < sampleCount; a.SrcIdx++ {
		thisBit := waveform.GetBit(buf, a.SrcIdx)

		if a.State == StateData || a.State == StateTrailer {
			a.DurCycle += waveform.Tick
		}

		if thisBit == a.Level {
			a.Dur += waveform.Tick
		} else {
			tok, ferr := a.onFlipped()
			if ferr != nil {
				return "", "", ferr
			}
			var dat byte
			if tok == TokenData1 {
				dat = 1
			}
			if err := handleToken(tok, dat); err != nil {
				return "", "", err
			}
			a.Level = thisBit
			a.DurPrev = a.Dur
			a.Dur = waveform.Tick
		}

		tok, serr := a.onEachSample()
		if serr != nil {
			return "", "", serr
		}
		var dat byte
		if tok == TokenData1 {
			dat = 1
		}
		if err := handleToken(tok, dat); err != nil {
			return "", "", err
		}
	}

	if a.Cycle == 0 {
		return "", "", ErrNoCycleDecoded
	}

	if ops.OnExit != nil {
		if err := ops.OnExit(a, payload, &dst); err != nil {
			return "", "", err
		}
	}

	return cfg.Tag, dst.String(), nil
}
