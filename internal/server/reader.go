package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/lemonwave/ir-bridge/internal/hub"
	"github.com/lemonwave/ir-bridge/internal/metrics"
	"github.com/lemonwave/ir-bridge/internal/wireproto"
)

func (s *Server) startReader(ctxDone <-chan struct{}, conn net.Conn, cl *hub.Client, logger *slog.Logger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { _ = conn.Close() }()

		handle := func(ev wireproto.Envelope) {
			if s.envelopeFilter != nil && !s.envelopeFilter(&ev) {
				return
			}
			metrics.IncTCPRx()
			if s.Send == nil {
				return
			}
			if err := s.Send(ev); err != nil {
				if errors.Is(err, ErrBackendOverflow) {
					s.totalBackendOverflow.Add(1)
					logger.Debug("backend_overflow_drop", "tag", ev.Tag)
				} else {
					s.totalBackendErrors.Add(1)
					logger.Error("backend_tx_error", "error", err, "tag", ev.Tag)
				}
			}
		}

		for {
			_ = conn.SetReadDeadline(time.Now().Add(s.readDeadline))
			var count int
			if mfd, ok := s.Codec.(interface {
				DecodeN(io.Reader, int, func(wireproto.Envelope)) (int, error)
			}); ok {
				var err error
				count, err = mfd.DecodeN(conn, 16, handle)
				if err != nil {
					if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
						return
					}
					if ne, ok := err.(net.Error); ok && ne.Timeout() {
						continue
					}
					wrap := fmt.Errorf("%w: %v", ErrConnRead, err)
					metrics.IncError(mapErrToMetric(wrap))
					s.setError(wrap)
					return
				}
			} else {
				ev, err := s.Codec.Decode(conn)
				if err != nil {
					if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
						return
					}
					if ne, ok := err.(net.Error); ok && ne.Timeout() {
						continue
					}
					wrap := fmt.Errorf("%w: %v", ErrConnRead, err)
					metrics.IncError(mapErrToMetric(wrap))
					s.setError(wrap)
					return
				}
				handle(ev)
				count = 1
			}
			if count == 0 {
				time.Sleep(100 * time.Microsecond)
			}
			select {
			case <-ctxDone:
				return
			default:
			}
		}
	}()
}
