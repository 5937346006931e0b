package bridgewire

import (
	"context"
	"errors"
	"io"

	"github.com/lemonwave/ir-bridge/internal/logging"
	"github.com/lemonwave/ir-bridge/internal/metrics"
	"github.com/lemonwave/ir-bridge/internal/transport"
)

// ErrTxOverflow is returned when the transmit queue is full.
var ErrTxOverflow = errors.New("bridge tx overflow")

// TXWriter funnels all writes to the capture/transmit hardware through one
// goroutine, so a slow or wedged UART never blocks the decode/analyze path.
type TXWriter struct{ base *transport.AsyncTx[Frame] }

// NewTXWriter creates a bridgewire TXWriter with a buffered channel of size buf.
func NewTXWriter(parent context.Context, w io.Writer, codec Codec, buf int) *TXWriter {
	send := func(f Frame) error {
		_, err := w.Write(codec.Encode(f))
		return err
	}
	hooks := transport.Hooks[Frame]{
		OnError: func(err error) {
			metrics.IncError(metrics.ErrSerialWrite)
			logging.L().Error("bridge_write_error", "error", err)
		},
		OnAfter: func() { metrics.IncBridgeTx() },
		OnDrop: func() error {
			metrics.IncError(metrics.ErrSerialTxOver)
			return ErrTxOverflow
		},
	}
	return &TXWriter{base: transport.NewAsyncTx(parent, buf, send, hooks)}
}

// SendFrame queues a frame for asynchronous write (drops with ErrTxOverflow if buffer full).
func (w *TXWriter) SendFrame(f Frame) error { return w.base.SendFrame(f) }

// Close stops the writer and waits for pending goroutine exit.
func (w *TXWriter) Close() { w.base.Close() }
