package analyzer

import "errors"

// Per-format rejections are always silent from the caller's point of view
// (registry.Decode only ever surfaces ErrUnknownFormat); these sentinels
// exist so format modules and tests can distinguish *why* an attempt was
// abandoned.
var (
	// ErrTimingOutOfRange: a run duration matched no acceptance window for
	// the current state.
	ErrTimingOutOfRange = errors.New("analyzer: timing out of range")
	// ErrPayloadOverflow: more than DataLenMax bytes would be decoded.
	ErrPayloadOverflow = errors.New("analyzer: payload overflow")
	// ErrCyclePayloadDisagreement: repeat cycles decoded to different bytes.
	ErrCyclePayloadDisagreement = errors.New("analyzer: cycle payload disagreement")
	// ErrNecDataInconsistent: NEC's cmd/~cmd check failed.
	ErrNecDataInconsistent = errors.New("analyzer: nec cmd/~cmd inconsistent")
	// ErrMarkerOutOfPosition: a KOIZUMI marker appeared outside bit 9 or 12.
	ErrMarkerOutOfPosition = errors.New("analyzer: marker out of position")
	// ErrNoCycleDecoded: the sweep ended with zero completed cycles.
	ErrNoCycleDecoded = errors.New("analyzer: no cycle decoded")
)
