package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/orchestra-mcp/fakesub/src/bridge"
	"github.com/orchestra-mcp/fakesub/src/catalog"
	"github.com/orchestra-mcp/fakesub/src/envelope"
	"github.com/orchestra-mcp/fakesub/src/hub"
	"github.com/orchestra-mcp/fakesub/src/types"
	"github.com/rs/zerolog"
)

// ErrUnknownMessage is returned when a catalog key does not exist.
var ErrUnknownMessage = errors.New("no message with id")

// Options control per-connection behaviour.
type Options struct {
	// KeepaliveTimeout is advertised in session_welcome. It is not enforced.
	KeepaliveTimeout int
	// KeepaliveInterval enables periodic session_keepalive messages when > 0.
	KeepaliveInterval time.Duration
}

// Service owns the connection registry and message catalog of one server
// instance and broadcasts notifications to connected clients.
type Service struct {
	hub     *hub.Hub
	catalog *catalog.Catalog
	opts    Options
	bridge  bridge.Bridge
	mu      sync.RWMutex
	logger  zerolog.Logger
}

// New creates a service backed by the given hub and catalog.
func New(h *hub.Hub, c *catalog.Catalog, opts Options, logger zerolog.Logger) *Service {
	return &Service{
		hub:     h,
		catalog: c,
		opts:    opts,
		logger:  logger.With().Str("component", "service").Logger(),
	}
}

// Hub returns the underlying hub.
func (s *Service) Hub() *hub.Hub { return s.hub }

// Catalog returns the message catalog.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// SetBridge attaches a cross-instance bridge. Broadcasts are then also
// published to other instances.
func (s *Service) SetBridge(b bridge.Bridge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bridge = b
}

// BridgeAvailable reports whether an attached bridge is connected.
func (s *Service) BridgeAvailable() bool {
	return s.activeBridge() != nil
}

func (s *Service) activeBridge() bridge.Bridge {
	s.mu.RLock()
	b := s.bridge
	s.mu.RUnlock()
	if b == nil || !b.Available() {
		return nil
	}
	return b
}

// Broadcast wraps payload as a notification and sends the same serialized
// bytes to every connected client. With nobody listening it does nothing.
// Per-client send failures are logged, not returned.
func (s *Service) Broadcast(payload types.Payload) error {
	b := s.activeBridge()
	if s.hub.ClientCount() == 0 && b == nil {
		s.logger.Debug().Msg("no clients connected, dropping broadcast")
		return nil
	}

	msg, err := envelope.Wrap(envelope.TypeNotification, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	if b != nil {
		if err := b.Publish(data); err != nil {
			s.logger.Error().Err(err).Msg("bridge publish failed")
		}
	}

	delivered, failed := s.hub.Fanout(data)
	s.logger.Info().
		Int("delivered", delivered).
		Int("failed", failed).
		Msg("broadcast notification")
	return nil
}

// BroadcastEntry broadcasts the catalog payload stored under key.
func (s *Service) BroadcastEntry(key string) error {
	payload, ok := s.catalog.Get(key)
	if !ok {
		return fmt.Errorf("%w %s", ErrUnknownMessage, key)
	}
	return s.Broadcast(payload)
}

// DeliverLocal fans out bytes relayed by the bridge to local clients only.
func (s *Service) DeliverLocal(data []byte) {
	delivered, failed := s.hub.Fanout(data)
	s.logger.Debug().
		Int("delivered", delivered).
		Int("failed", failed).
		Msg("delivered relayed message")
}

// Reload re-reads the catalog file.
func (s *Service) Reload() (int, error) {
	return s.catalog.Reload()
}

// MessageKeys lists the catalog keys.
func (s *Service) MessageKeys() []string {
	return s.catalog.Keys()
}
