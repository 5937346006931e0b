package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lemonwave/ir-bridge/internal/command"
	"github.com/lemonwave/ir-bridge/internal/hub"
	"github.com/lemonwave/ir-bridge/internal/metrics"
	"github.com/lemonwave/ir-bridge/internal/registry"
	"github.com/lemonwave/ir-bridge/internal/wireproto"
)

// openStore is a hook for tests (overridden in unit tests).
var openStore = command.Open

// initReplayBackend sets up the replay backend: instead of a live bridge it
// cycles through every command in the recorded-command database, re-decoding
// each stored waveform and broadcasting it on replayInterval. This stands in
// for hardware when none is attached (bench testing, demoing the TCP feed,
// CI). Transmit requests look the tag up in the store and log a simulated
// transmit instead of driving an LED.
func initReplayBackend(ctx context.Context, cfg *appConfig, h *hub.Hub, l *slog.Logger, wg *sync.WaitGroup) (func(wireproto.Envelope) error, func(), error) {
	st, err := openStore(cfg.storePath)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open command store: %w", err)
	}
	l.Info("replay_store_open", "path", cfg.storePath)

	var seq atomic.Uint64
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer l.Info("replay_end")
		t := time.NewTicker(cfg.replayInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				tags, err := st.List()
				if err != nil {
					l.Warn("replay_list_error", "error", err)
					continue
				}
				for _, tag := range tags {
					rec, samples, protocol, err := st.Load(tag)
					if err != nil {
						continue
					}
					_, summary, derr := registry.Decode(rec.Data, samples)
					if derr != nil {
						summary = ""
					}
					metrics.IncReplayTx()
					h.Broadcast(hub.DecodeEvent{
						Tag:     protocol,
						Summary: summary,
						SeqNo:   seq.Add(1),
						At:      time.Now(),
					})
				}
			}
		}
	}()

	send := func(ev wireproto.Envelope) error {
		if _, _, _, err := st.Load(ev.Tag); err != nil {
			return err
		}
		metrics.IncReplayTx()
		l.Info("replay_transmit_simulated", "tag", ev.Tag)
		return nil
	}
	return send, func() { _ = st.Close() }, nil
}
