package envelope

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/orchestra-mcp/fakesub/src/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPassesThroughPrewrapped(t *testing.T) {
	payload := types.Payload{
		"metadata": map[string]any{"message_id": "abc"},
		"payload":  map[string]any{"x": 1},
	}

	for _, typ := range []string{TypeNotification, TypeSessionWelcome, "anything", ""} {
		got, err := Wrap(typ, payload)
		require.NoError(t, err)
		assert.Equal(t, payload, got, "type %q", typ)
	}
}

func TestWrapNotification(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	payload := types.Payload{
		"subscription": map[string]any{"type": "channel.follow"},
		"event":        map[string]any{"user_name": "alice"},
	}

	msg, err := WrapAt(TypeNotification, payload, at)
	require.NoError(t, err)

	md := msg["metadata"].(map[string]any)
	assert.Equal(t, "notification", md["message_type"])
	assert.Equal(t, "channel.follow", md["subscription_type"])
	assert.Equal(t, 1, md["subscription_version"])
	assert.Equal(t, "2024-05-01T12:30:00Z", md["message_timestamp"])
	assert.Len(t, md["message_id"], 20)
	assert.Equal(t, payload, msg["payload"])
}

func TestWrapNotificationWithoutSubscription(t *testing.T) {
	_, err := Wrap(TypeNotification, types.Payload{"event": map[string]any{}})
	assert.ErrorIs(t, err, ErrMissingSubscriptionType)

	_, err = Wrap(TypeNotification, types.Payload{"subscription": "channel.follow"})
	assert.ErrorIs(t, err, ErrMissingSubscriptionType)

	_, err = Wrap(TypeNotification, types.Payload{"subscription": map[string]any{"version": "1"}})
	assert.ErrorIs(t, err, ErrMissingSubscriptionType)
}

func TestWrapOtherTypesSkipSubscription(t *testing.T) {
	msg, err := Wrap("revocation", types.Payload{"foo": "bar"})
	require.NoError(t, err)

	md := msg["metadata"].(map[string]any)
	assert.Equal(t, "revocation", md["message_type"])
	assert.NotContains(t, md, "subscription_type")
	assert.NotContains(t, md, "subscription_version")
}

func TestMessageIDsAreRandom(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewMessageID()
		assert.Len(t, id, 20)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestWelcome(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := Welcome("sess-1", 30, at)

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded struct {
		Metadata struct {
			MessageType string `json:"message_type"`
		} `json:"metadata"`
		Payload struct {
			Session struct {
				ID        string  `json:"id"`
				Status    string  `json:"status"`
				Keepalive int     `json:"keepalive_timeout_seconds"`
				Reconnect *string `json:"reconnect_url"`
			} `json:"session"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, TypeSessionWelcome, decoded.Metadata.MessageType)
	assert.Equal(t, "sess-1", decoded.Payload.Session.ID)
	assert.Equal(t, "connected", decoded.Payload.Session.Status)
	assert.Equal(t, 30, decoded.Payload.Session.Keepalive)
	assert.Nil(t, decoded.Payload.Session.Reconnect)
}

func TestKeepalive(t *testing.T) {
	msg := Keepalive()
	md := msg["metadata"].(map[string]any)
	assert.Equal(t, TypeSessionKeepalive, md["message_type"])
	assert.Equal(t, types.Payload{}, msg["payload"])
}
