package registry_test

import (
	"testing"

	"github.com/lemonwave/ir-bridge/internal/formats"
	"github.com/lemonwave/ir-bridge/internal/registry"
)

func TestDecodePicksForgedFormat(t *testing.T) {
	buf := formats.ForgeNEC(0x04, 0x10)
	tag, _, err := registry.Decode(buf.Bytes, buf.Samples)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tag != "NEC" {
		t.Fatalf("expected NEC, got %s", tag)
	}
}

func TestDecodeReachesLaterFormatInOrder(t *testing.T) {
	payload := []byte{0xa5, 0x01, 0x00}
	buf := formats.ForgeSony(payload, 12)
	tag, _, err := registry.Decode(buf.Bytes, buf.Samples)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tag != "SONY" {
		t.Fatalf("expected SONY, got %s", tag)
	}
}
