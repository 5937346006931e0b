package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lemonwave/ir-bridge/internal/bridgewire"
	"github.com/lemonwave/ir-bridge/internal/formats"
	"github.com/lemonwave/ir-bridge/internal/hub"
	"github.com/lemonwave/ir-bridge/internal/metrics"
	"github.com/lemonwave/ir-bridge/internal/registry"
	"github.com/lemonwave/ir-bridge/internal/serial"
	"github.com/lemonwave/ir-bridge/internal/server"
	"github.com/lemonwave/ir-bridge/internal/waveform"
	"github.com/lemonwave/ir-bridge/internal/wireproto"
)

// sleepFn allows tests to intercept backoff sleeps.
var sleepFn = time.Sleep

// openSerialPort is a hook for tests (overridden in unit tests).
var openSerialPort = serial.Open

// ErrUnsupportedForgeTag is returned when a transmit request names a
// protocol the bridge cannot synthesize a waveform for (KOIZUMI has no
// known forger in the original tool).
var ErrUnsupportedForgeTag = errors.New("unsupported forge tag")

// forgeByTag builds the waveform to transmit for the requested protocol tag.
// nbits (reusing the envelope's Cycle field for transmit requests) is only
// consulted by the variable-length formats.
func forgeByTag(tag string, payload []byte, nbits int) (waveform.Buffer, error) {
	switch tag {
	case "NEC":
		if len(payload) < 3 {
			return waveform.Buffer{}, fmt.Errorf("NEC forge payload too short: %d bytes", len(payload))
		}
		custom := binary.BigEndian.Uint16(payload[0:2])
		return formats.ForgeNEC(custom, payload[2]), nil
	case "AEHA":
		return formats.ForgeAEHA(payload), nil
	case "DAIKIN":
		return formats.ForgeDaikin(payload, nbits), nil
	case "SONY":
		return formats.ForgeSony(payload, nbits), nil
	default:
		return waveform.Buffer{}, fmt.Errorf("%w: %s", ErrUnsupportedForgeTag, tag)
	}
}

var seqCounter atomic.Uint64

// initSerialBackend sets up the bridge UART backend, launching the capture
// (RX) loop and returning a send function for outgoing transmit requests.
func initSerialBackend(ctx context.Context, cfg *appConfig, h *hub.Hub, l *slog.Logger, wg *sync.WaitGroup) (func(wireproto.Envelope) error, func(), error) {
	sp, err := openSerialPort(cfg.serialDev, cfg.baud, cfg.serialReadTO)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open bridge serial: %w", err)
	}
	l.Info("bridge_serial_open", "device", cfg.serialDev, "baud", cfg.baud)
	codec := bridgewire.Codec{}
	w := bridgewire.NewTXWriter(ctx, sp, codec, txQueueSize)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer l.Info("bridge_rx_end")
		buf := make([]byte, serialReadBufSize)
		acc := bytes.NewBuffer(nil)
		backoff := rxBackoffMin
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			n, err := sp.Read(buf)
			if n > 0 {
				acc.Write(buf[:n])
				_ = codec.DecodeStream(acc, func(f bridgewire.Frame) {
					if f.Kind != bridgewire.KindCapture {
						return
					}
					handleCapture(h, f.Payload, l)
				})
				if acc.Len() == 0 && cap(acc.Bytes()) > largeBufferReclaimThreshold {
					acc = bytes.NewBuffer(nil)
				}
				backoff = rxBackoffMin
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				var perr *os.PathError
				if errors.As(err, &perr) {
					return
				}
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					continue
				}
				metrics.IncError(metrics.ErrSerialRead)
				l.Warn("bridge_read_error", "error", err, "backoff", backoff)
				sleepFn(backoff)
				backoff *= 2
				if backoff > rxBackoffMax {
					backoff = rxBackoffMax
				}
			}
		}
	}()

	send := func(ev wireproto.Envelope) error {
		buf, err := forgeByTag(ev.Tag, ev.Payload, int(ev.Cycle))
		if err != nil {
			return err
		}
		metrics.IncForge(ev.Tag)
		if err := w.SendFrame(bridgewire.Frame{Kind: bridgewire.KindTransmit, Payload: buf.Bytes}); err != nil {
			if errors.Is(err, bridgewire.ErrTxOverflow) {
				return fmt.Errorf("%w: %w", server.ErrBackendOverflow, err)
			}
			return err
		}
		return nil
	}
	return send, func() { _ = sp.Close(); w.Close() }, nil
}

// handleCapture decodes a raw capture payload against the registered
// protocol formats and broadcasts the result to the hub; failures only bump
// the decode-failure counter since the waveform may be noise.
func handleCapture(h *hub.Hub, payload []byte, l *slog.Logger) {
	sampleCount := len(payload) * 8
	tag, summary, err := registry.Decode(payload, sampleCount)
	if err != nil {
		metrics.IncDecodeAttempt("unknown", false)
		l.Debug("decode_failed", "error", err)
		return
	}
	metrics.IncDecodeAttempt(tag, true)
	h.Broadcast(hub.DecodeEvent{
		Tag:     tag,
		Summary: summary,
		SeqNo:   seqCounter.Add(1),
		At:      time.Now(),
	})
}
