package server

import (
	"context"
	"net"

	"github.com/lemonwave/ir-bridge/internal/wireproto"
)

// ProtocolHandshake runs the required TCP hello exchange.
func (s *Server) ProtocolHandshake(ctx context.Context, c net.Conn) error {
	return wireproto.Handshake(ctx, c, s.handshakeTimeout)
}
