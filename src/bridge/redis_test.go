package bridge

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/orchestra-mcp/fakesub/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBroadcastTarget records messages forwarded from the bridge.
type mockBroadcastTarget struct {
	received [][]byte
}

func (m *mockBroadcastTarget) DeliverLocal(data []byte) {
	m.received = append(m.received, data)
}

func newTestBridge(target BroadcastTarget) *RedisBridge {
	return NewRedisBridge(config.DefaultRedisConfig(), target, zerolog.Nop())
}

func TestRedisEnvelopeKeepsMessageBytes(t *testing.T) {
	b := newTestBridge(&mockBroadcastTarget{})
	msg := []byte(`{"metadata":{"message_type":"notification"},"payload":{"a":1}}`)

	data, err := b.encode(msg)
	require.NoError(t, err)

	var decoded redisEnvelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, b.InstanceID(), decoded.InstanceID)
	assert.JSONEq(t, string(msg), string(decoded.Message))
}

func TestHandlePayloadForwardsForeignMessages(t *testing.T) {
	target := &mockBroadcastTarget{}
	b := newTestBridge(target)
	other := newTestBridge(&mockBroadcastTarget{})

	data, err := other.encode([]byte(`{"x":1}`))
	require.NoError(t, err)

	b.handlePayload(string(data))
	require.Len(t, target.received, 1)
	assert.JSONEq(t, `{"x":1}`, string(target.received[0]))
}

func TestHandlePayloadSkipsOwnMessages(t *testing.T) {
	target := &mockBroadcastTarget{}
	b := newTestBridge(target)

	data, err := b.encode([]byte(`{"x":1}`))
	require.NoError(t, err)

	b.handlePayload(string(data))
	assert.Empty(t, target.received)
}

func TestHandlePayloadIgnoresGarbage(t *testing.T) {
	target := &mockBroadcastTarget{}
	b := newTestBridge(target)

	b.handlePayload("{not json")
	assert.Empty(t, target.received)
}

func TestRedisBridgeAvailableFalseBeforeStart(t *testing.T) {
	b := newTestBridge(&mockBroadcastTarget{})
	assert.False(t, b.Available())
}

func TestRedisBridgeInstanceIDUnique(t *testing.T) {
	b1 := newTestBridge(&mockBroadcastTarget{})
	b2 := newTestBridge(&mockBroadcastTarget{})
	assert.NotEqual(t, b1.InstanceID(), b2.InstanceID())
}

func TestRedisBridgeChannelUsesPrefix(t *testing.T) {
	cfg := config.DefaultRedisConfig()
	cfg.Prefix = "test:ws:"
	b := NewRedisBridge(cfg, &mockBroadcastTarget{}, zerolog.Nop())
	assert.Equal(t, "test:ws:broadcast", b.channel)
}

// chanTarget hands relayed messages to the test goroutine.
type chanTarget struct {
	ch chan []byte
}

func newChanTarget() *chanTarget { return &chanTarget{ch: make(chan []byte, 4)} }

func (c *chanTarget) DeliverLocal(data []byte) { c.ch <- data }

func startBridge(t *testing.T, cfg *config.RedisConfig, target BroadcastTarget) *RedisBridge {
	t.Helper()
	b := NewRedisBridge(cfg, target, zerolog.Nop())
	require.NoError(t, b.Start())
	t.Cleanup(func() { _ = b.Stop() })
	return b
}

func TestRedisBridgeRelaysBetweenInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.DefaultRedisConfig()
	cfg.Addr = mr.Addr()

	fromA, fromB := newChanTarget(), newChanTarget()
	a := startBridge(t, cfg, fromA)
	startBridge(t, cfg, fromB)
	assert.True(t, a.Available())

	msg := []byte(`{"metadata":{"message_type":"notification"},"payload":{}}`)
	require.NoError(t, a.Publish(msg))

	select {
	case got := <-fromB.ch:
		assert.JSONEq(t, string(msg), string(got))
	case <-time.After(2 * time.Second):
		t.Fatal("message not relayed to the other instance")
	}

	select {
	case <-fromA.ch:
		t.Fatal("instance received its own message")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, a.Stop())
	assert.False(t, a.Available())
}

func TestRedisBridgeStartFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.DefaultRedisConfig()
	cfg.Addr = mr.Addr()
	mr.Close()

	b := NewRedisBridge(cfg, newChanTarget(), zerolog.Nop())
	assert.Error(t, b.Start())
	assert.False(t, b.Available())
}
