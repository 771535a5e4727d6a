package server

import (
	"strings"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
)

func (s *Server) handleWebSocket(ctx *fasthttp.RequestCtx) {
	upgrade := string(ctx.Request.Header.Peek("Upgrade"))
	if !strings.EqualFold(upgrade, "websocket") {
		ctx.SetStatusCode(fasthttp.StatusUpgradeRequired)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"error":"upgrade_required","message":"WebSocket upgrade required"}`)
		return
	}

	remoteAddr := ctx.RemoteAddr().String()
	timeout := s.cfg.WriteTimeoutDuration()

	err := s.upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
		s.service.Serve(&deadlineConn{conn: conn, timeout: timeout}, remoteAddr)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
	}
}

// deadlineConn bounds every frame write so a stuck client fails its own
// send instead of blocking a broadcast.
type deadlineConn struct {
	conn    *websocket.Conn
	timeout time.Duration
}

func (d *deadlineConn) WriteMessage(messageType int, data []byte) error {
	if d.timeout > 0 {
		if err := d.conn.SetWriteDeadline(time.Now().Add(d.timeout)); err != nil {
			return err
		}
	}
	return d.conn.WriteMessage(messageType, data)
}

func (d *deadlineConn) ReadMessage() (int, []byte, error) {
	return d.conn.ReadMessage()
}

// Close sends a best-effort close frame before dropping the connection.
func (d *deadlineConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = d.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return d.conn.Close()
}
