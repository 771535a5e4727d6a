package types

import "time"

// Payload is an opaque JSON object. Only the fields the envelope and
// catalog logic need are ever inspected.
type Payload = map[string]any

// ClientInfo holds metadata about a connected WebSocket client.
type ClientInfo struct {
	ID          string    `json:"id"`
	ConnectedAt time.Time `json:"connected_at"`
	RemoteAddr  string    `json:"remote_addr,omitempty"`
}

// Conn abstracts a WebSocket connection for testability.
// *websocket.Conn from fasthttp/websocket satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Subscription is a fake EventSub subscription registration.
type Subscription struct {
	ID        int            `json:"id"`
	Type      string         `json:"type"`
	Version   any            `json:"version"`
	Condition map[string]any `json:"condition"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}
