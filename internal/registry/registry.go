// Package registry tries every known protocol format against a captured
// waveform, in the bridge's fixed priority order, and returns the first
// one that decodes successfully.
package registry

import (
	"errors"

	"github.com/lemonwave/ir-bridge/internal/analyzer"
	"github.com/lemonwave/ir-bridge/internal/formats"
)

// ErrUnknownFormat is returned when no registered format decodes the buffer.
var ErrUnknownFormat = errors.New("registry: unknown format")

type entry struct {
	cfg *analyzer.Config
	ops *analyzer.Ops
}

// table is the fixed try-order: AEHA, DAIKIN, NEC, SONY, KOIZUMI. Order
// matters because a loosely-specified format can false-positive on another
// format's waveform; this order matches the original tool's table.
var table = []entry{
	{formats.AEHAConfig, formats.AEHAOps},
	{formats.DaikinConfig, formats.DaikinOps},
	{formats.NECConfig, formats.NECOps},
	{formats.SonyConfig, formats.SonyOps},
	{formats.KoizumiConfig, formats.KoizumiOps},
}

// Decode tries every format in order against buf (sampleCount significant
// bits) and returns the tag and summary of the first one that succeeds.
// Per-format rejection reasons are swallowed; only total failure surfaces.
func Decode(buf []byte, sampleCount int) (tag string, summary string, err error) {
	for _, e := range table {
		tag, summary, err = analyzer.Run(e.cfg, e.ops, buf, sampleCount)
		if err == nil {
			return tag, summary, nil
		}
	}
	return "", "", ErrUnknownFormat
}
