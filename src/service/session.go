package service

import (
	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/orchestra-mcp/fakesub/src/envelope"
	"github.com/orchestra-mcp/fakesub/src/hub"
	"github.com/orchestra-mcp/fakesub/src/types"
)

// Serve runs one client connection until it closes. The welcome is written
// before the client is registered, so it is always the first frame; a
// broadcast racing the connect is not delivered to this client.
// Once registered, the client is always unregistered and closed on return.
func (s *Service) Serve(conn types.Conn, remoteAddr string) {
	client := hub.NewClient(uuid.New().String(), conn)
	client.RemoteAddr = remoteAddr
	logger := s.logger.With().Str("client_id", client.ID).Logger()

	sessionID := envelope.NewSessionID()
	welcome := envelope.Welcome(sessionID, s.opts.KeepaliveTimeout, client.ConnectedAt())
	if err := client.SendJSON(welcome); err != nil {
		logger.Warn().Err(err).Msg("failed to send session_welcome")
		_ = client.Close()
		return
	}

	s.hub.Register(client)
	defer func() {
		s.hub.Unregister(client)
		_ = client.Close()
		logger.Info().Msg("websocket connection closed")
	}()
	logger.Info().Str("session_id", sessionID).Str("remote_addr", remoteAddr).Msg("session started")

	if s.opts.KeepaliveInterval > 0 {
		go client.KeepalivePump(s.opts.KeepaliveInterval, func() error {
			return client.SendJSON(envelope.Keepalive())
		})
	}

	err := client.ReadPump()
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		logger.Debug().Err(err).Msg("client closed connection")
		return
	}
	logger.Warn().Err(err).Msg("websocket error")
}
