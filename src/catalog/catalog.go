// Package catalog holds the predefined notification payloads that can be
// broadcast by key.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"github.com/orchestra-mcp/fakesub/src/types"
	"github.com/rs/zerolog"
)

// Catalog maps message keys to payloads. The whole mapping is swapped on
// reload, so readers see either the old or the new set, never a mix.
type Catalog struct {
	path    string
	entries atomic.Pointer[map[string]types.Payload]
	logger  zerolog.Logger
}

// New creates an empty catalog backed by the file at path.
func New(path string, logger zerolog.Logger) *Catalog {
	c := &Catalog{
		path:   path,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
	empty := make(map[string]types.Payload)
	c.entries.Store(&empty)
	return c
}

// Path returns the file the catalog reloads from.
func (c *Catalog) Path() string { return c.path }

// Reload re-reads the catalog file.
func (c *Catalog) Reload() (int, error) {
	return c.Load(c.path)
}

// Load parses the JSON object at path and replaces the catalog with it.
// On failure the current entries are left untouched.
func (c *Catalog) Load(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("failed to reload messages")
		return 0, err
	}

	entries := make(map[string]types.Payload)
	if err := json.Unmarshal(data, &entries); err != nil {
		err = fmt.Errorf("parse %s: %w", path, err)
		c.logger.Error().Err(err).Msg("failed to reload messages")
		return 0, err
	}

	c.entries.Store(&entries)
	c.logger.Info().Int("count", len(entries)).Str("path", path).Msg("reloaded messages")
	return len(entries), nil
}

// Get returns the payload stored under key. A key mapped to JSON null
// yields a nil payload with ok set.
func (c *Catalog) Get(key string) (types.Payload, bool) {
	p, ok := (*c.entries.Load())[key]
	return p, ok
}

// Keys returns all message keys in sorted order.
func (c *Catalog) Keys() []string {
	entries := *c.entries.Load()
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(*c.entries.Load())
}
