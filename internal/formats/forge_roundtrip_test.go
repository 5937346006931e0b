package formats

import (
	"strings"
	"testing"

	"github.com/lemonwave/ir-bridge/internal/analyzer"
)

// decode runs a single format's Ops/Config pair directly, bypassing the
// registry's try-everything fallback, so a mismatch points at one format.
func decode(t *testing.T, cfg *analyzer.Config, ops *analyzer.Ops, buf []byte, samples int) (string, string) {
	t.Helper()
	tag, summary, err := analyzer.Run(cfg, ops, buf, samples)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return tag, summary
}

// TestForgeNECRoundTrip pins down NEC's exact summary string for a
// concrete custom/command pair: custom=1234 decomposes into the two
// forged bytes 0x34, 0x12, and sumfmt.HexReversed prints them high byte
// first, so it reads back exactly as it was given.
func TestForgeNECRoundTrip(t *testing.T) {
	buf := ForgeNEC(0x1234, 0x56)
	tag, summary := decode(t, NECConfig, NECOps, buf.Bytes, buf.Samples)
	if tag != "NEC" {
		t.Fatalf("expected tag NEC, got %s", tag)
	}
	const want = "custom=1234 cmd=56"
	if summary != want {
		t.Fatalf("summary = %q, want %q", summary, want)
	}
}

func TestForgeAEHARoundTrip(t *testing.T) {
	payload := make([]byte, aehaDataLen)
	payload[0] = 0x02
	payload[1] = 0x20
	payload[2] = 0xe0
	buf := ForgeAEHA(payload)
	tag, summary := decode(t, AEHAConfig, AEHAOps, buf.Bytes, buf.Samples)
	if tag != "AEHA" {
		t.Fatalf("expected tag AEHA, got %s", tag)
	}
	// 18 bytes reversed: 15 zero bytes, then 0xe0, 0x20, 0x02; parity
	// nibble (tmp[2]&0xf=0) matches the computed nibble (0^2^2^0=0).
	want := strings.Repeat("00", 15) + "e02002 parity=true"
	if summary != want {
		t.Fatalf("summary = %q, want %q", summary, want)
	}
}

func TestForgeDaikinRoundTrip(t *testing.T) {
	payload := make([]byte, daikinDataLen)
	payload[0] = 0x11
	payload[1] = 0xda
	buf := ForgeDaikin(payload, daikinBitLenMin)
	tag, summary := decode(t, DaikinConfig, DaikinOps, buf.Bytes, buf.Samples)
	if tag != "DAIKIN" {
		t.Fatalf("expected tag DAIKIN, got %s", tag)
	}
	// 40 bits = 5 bytes: 0x11, 0xda, then three zero bytes, reversed.
	// Parity nibble (tmp[2]&0xf=0) vs computed (1^1^0xd^0xa=7): mismatch.
	const want = "000000da11 (40bit) parity=false"
	if summary != want {
		t.Fatalf("summary = %q, want %q", summary, want)
	}
}

func TestForgeSonyRoundTrip(t *testing.T) {
	payload := []byte{0xa5, 0x01, 0x00}
	buf := ForgeSony(payload, sonyBitLen12)
	tag, summary := decode(t, SonyConfig, SonyOps, buf.Bytes, buf.Samples)
	if tag != "SONY" {
		t.Fatalf("expected tag SONY, got %s", tag)
	}
	// 12 bits decode to byte0=0xa5 in full plus only the low nibble of
	// byte1 (0x01's bit 0), so tmp = {0xa5, 0x01}; reversed: "01a5".
	const want = "01a5 (12bit)"
	if summary != want {
		t.Fatalf("summary = %q, want %q", summary, want)
	}
}

func TestForgeDaikinClampsBitLen(t *testing.T) {
	payload := make([]byte, daikinDataLen)
	buf := ForgeDaikin(payload, 4) // below daikinBitLenMin, must clamp not panic
	tag, summary := decode(t, DaikinConfig, DaikinOps, buf.Bytes, buf.Samples)
	if tag != "DAIKIN" {
		t.Fatalf("expected tag DAIKIN with clamped bit length, got %s", tag)
	}
	const want = "0000000000 (40bit) parity=true"
	if summary != want {
		t.Fatalf("summary = %q, want %q", summary, want)
	}
}

// TestForgeNECRejectsCorruptedCmdInv exercises necOnEndCycle's cmd/~cmd
// cross-check: a frame whose cmd_inv byte disagrees with cmd must abort
// the decode rather than silently accept a corrupted command.
func TestForgeNECRejectsCorruptedCmdInv(t *testing.T) {
	buf := ForgeNEC(0x1234, 0x56)

	// Re-forge the same custom/cmd pair but with cmd_inv set to 0x00
	// instead of ^cmd, so the cross-check in necOnEndCycle must fire.
	corrupted := forgeNECWithRawCmdInv(0x1234, 0x56, 0x00)

	_, _, err := analyzer.Run(NECConfig, NECOps, corrupted.Bytes, corrupted.Samples)
	if err != analyzer.ErrNecDataInconsistent {
		t.Fatalf("expected ErrNecDataInconsistent for corrupted cmd_inv, got %v", err)
	}

	// The untouched waveform still decodes cleanly.
	_, _, err = analyzer.Run(NECConfig, NECOps, buf.Bytes, buf.Samples)
	if err != nil {
		t.Fatalf("uncorrupted waveform must still decode: %v", err)
	}
}
