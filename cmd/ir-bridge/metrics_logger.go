package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lemonwave/ir-bridge/internal/metrics"
)

func startMetricsLogger(ctx context.Context, interval time.Duration, l *slog.Logger, wg *sync.WaitGroup) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				snap := metrics.Snap()
				l.Info("metrics_snapshot",
					"bridge_rx", snap.BridgeRx,
					"bridge_tx", snap.BridgeTx,
					"replay_tx", snap.ReplayTx,
					"decode_ok", snap.DecodeOK,
					"decode_fail", snap.DecodeFail,
					"tcp_rx", snap.TCPRx,
					"tcp_tx", snap.TCPTx,
					"hub_drops", snap.HubDrops,
					"errors", snap.Errors,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
