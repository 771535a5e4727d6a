package envelope

import (
	"time"

	"github.com/orchestra-mcp/fakesub/src/types"
)

// Welcome builds the wrapped session_welcome record sent once to every new
// connection.
func Welcome(sessionID string, keepaliveSeconds int, connectedAt time.Time) types.Payload {
	record := types.Payload{
		"session": map[string]any{
			"id":                        sessionID,
			"status":                    "connected",
			"keepalive_timeout_seconds": keepaliveSeconds,
			"reconnect_url":             nil,
			"connected_at":              connectedAt.UTC().Format(time.RFC3339Nano),
		},
	}
	// Only notifications can fail to wrap.
	msg, _ := WrapAt(TypeSessionWelcome, record, connectedAt)
	return msg
}

// Keepalive builds a wrapped session_keepalive message with an empty payload.
func Keepalive() types.Payload {
	msg, _ := Wrap(TypeSessionKeepalive, types.Payload{})
	return msg
}
