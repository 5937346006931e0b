package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lemonwave/ir-bridge/internal/hub"
	"github.com/lemonwave/ir-bridge/internal/wireproto"
)

// initBackend selects the capture/transmit backend, starts its RX loop and
// returns an envelope sender and cleanup. It returns an error instead of
// exiting the process to allow graceful handling by the caller.
func initBackend(ctx context.Context, cfg *appConfig, h *hub.Hub, l *slog.Logger, wg *sync.WaitGroup) (func(wireproto.Envelope) error, func(), error) {
	switch cfg.backend {
	case "serial":
		return initSerialBackend(ctx, cfg, h, l, wg)
	case "replay":
		return initReplayBackend(ctx, cfg, h, l, wg)
	default:
		return nil, func() {}, fmt.Errorf("unknown backend %q (use serial|replay)", cfg.backend)
	}
}
