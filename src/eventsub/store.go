// Package eventsub keeps the fake subscription registrations made through
// the Helix-style subscriptions endpoint.
package eventsub

import (
	"errors"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/orchestra-mcp/fakesub/src/types"
	"github.com/rs/zerolog"
)

// Subscription ids are drawn from this inclusive range.
const (
	MinID = 100000
	MaxID = 999999
)

// ErrNotFound is returned when deleting an unknown subscription.
var ErrNotFound = errors.New("subscription not found")

// Request is the body accepted by Create.
type Request struct {
	Type      string         `json:"type"`
	Version   any            `json:"version"`
	Condition map[string]any `json:"condition"`
	Transport map[string]any `json:"transport,omitempty"`
}

// Store is an in-memory set of subscriptions.
type Store struct {
	mu     sync.RWMutex
	subs   map[int]types.Subscription
	logger zerolog.Logger
}

// NewStore creates an empty store.
func NewStore(logger zerolog.Logger) *Store {
	return &Store{
		subs:   make(map[int]types.Subscription),
		logger: logger.With().Str("component", "eventsub").Logger(),
	}
}

// Create records a subscription under a fresh random id.
func (s *Store) Create(req Request) types.Subscription {
	s.logger.Info().
		Str("type", req.Type).
		Interface("version", req.Version).
		Interface("condition", req.Condition).
		Msg("got subscribe")

	s.mu.Lock()
	defer s.mu.Unlock()

	id := newID()
	for {
		if _, taken := s.subs[id]; !taken {
			break
		}
		id = newID()
	}

	sub := types.Subscription{
		ID:        id,
		Type:      req.Type,
		Version:   req.Version,
		Condition: req.Condition,
		Status:    "enabled",
		CreatedAt: time.Now().UTC(),
	}
	s.subs[id] = sub
	return sub
}

// List returns all subscriptions ordered by creation time.
func (s *Store) List() []types.Subscription {
	s.mu.RLock()
	out := make([]types.Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Delete removes the subscription with the given id.
func (s *Store) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[id]; !ok {
		return ErrNotFound
	}
	delete(s.subs, id)
	s.logger.Info().Int("id", id).Msg("subscription deleted")
	return nil
}

func newID() int {
	return MinID + rand.IntN(MaxID-MinID+1)
}
