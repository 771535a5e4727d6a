// Package envelope builds the {metadata, payload} frames sent to
// EventSub WebSocket clients.
package envelope

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/orchestra-mcp/fakesub/src/types"
)

// Message types understood by EventSub clients.
const (
	TypeNotification     = "notification"
	TypeSessionWelcome   = "session_welcome"
	TypeSessionKeepalive = "session_keepalive"
)

// SubscriptionVersion is stamped on every notification.
const SubscriptionVersion = 1

const idBytes = 10

// ErrMissingSubscriptionType is returned when a notification payload has no
// subscription.type to copy into its metadata.
var ErrMissingSubscriptionType = errors.New("notification payload has no subscription.type")

// Wrap wraps payload in an envelope of the given type, stamped with the
// current time. Payloads that already carry metadata are returned as is.
func Wrap(messageType string, payload types.Payload) (types.Payload, error) {
	return WrapAt(messageType, payload, time.Now())
}

// WrapAt is Wrap with an explicit timestamp.
func WrapAt(messageType string, payload types.Payload, at time.Time) (types.Payload, error) {
	if _, ok := payload["metadata"]; ok {
		return payload, nil
	}

	metadata := map[string]any{
		"message_id":        NewMessageID(),
		"message_type":      messageType,
		"message_timestamp": at.UTC().Format(time.RFC3339Nano),
	}

	if messageType == TypeNotification {
		subType, err := subscriptionType(payload)
		if err != nil {
			return nil, err
		}
		metadata["subscription_type"] = subType
		metadata["subscription_version"] = SubscriptionVersion
	}

	return types.Payload{
		"metadata": metadata,
		"payload":  payload,
	}, nil
}

func subscriptionType(payload types.Payload) (any, error) {
	sub, ok := payload["subscription"].(map[string]any)
	if !ok {
		return nil, ErrMissingSubscriptionType
	}
	typ, ok := sub["type"]
	if !ok {
		return nil, ErrMissingSubscriptionType
	}
	return typ, nil
}

// NewMessageID returns a random 20 character hex identifier.
func NewMessageID() string {
	b := make([]byte, idBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewSessionID returns a random session identifier in the same format as
// message ids.
func NewSessionID() string {
	return NewMessageID()
}
