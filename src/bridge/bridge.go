package bridge

// Bridge defines the interface for cross-instance broadcasting.
// Implementations relay serialized envelopes between server instances.
type Bridge interface {
	// Publish sends a serialized message to all other instances.
	Publish(data []byte) error

	// Start begins listening for messages from other instances.
	Start() error

	// Stop shuts down the bridge connection.
	Stop() error

	// Available reports whether the bridge is connected and operational.
	Available() bool
}

// BroadcastTarget receives messages relayed from other instances.
type BroadcastTarget interface {
	DeliverLocal(data []byte)
}
