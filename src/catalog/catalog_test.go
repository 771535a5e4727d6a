package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndGet(t *testing.T) {
	path := writeFile(t, t.TempDir(), "messages.json", `{
		"follow": {"subscription": {"type": "channel.follow"}, "event": {}},
		"raid": {"subscription": {"type": "channel.raid"}, "event": {}}
	}`)

	c := New(path, zerolog.Nop())
	count, err := c.Reload()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"follow", "raid"}, c.Keys())

	p, ok := c.Get("follow")
	require.True(t, ok)
	assert.Equal(t, "channel.follow", p["subscription"].(map[string]any)["type"])
}

func TestGetAbsentVersusNull(t *testing.T) {
	path := writeFile(t, t.TempDir(), "messages.json", `{"empty": null}`)
	c := New(path, zerolog.Nop())
	_, err := c.Reload()
	require.NoError(t, err)

	p, ok := c.Get("empty")
	assert.True(t, ok)
	assert.Nil(t, p)

	p, ok = c.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestFailedLoadKeepsPreviousEntries(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", `{"a": {}, "b": {}}`)
	bad := writeFile(t, dir, "bad.json", `{"a": {`)
	notObject := writeFile(t, dir, "array.json", `[1, 2, 3]`)
	badValue := writeFile(t, dir, "value.json", `{"a": 5}`)

	c := New(good, zerolog.Nop())
	_, err := c.Reload()
	require.NoError(t, err)

	for _, path := range []string{bad, notObject, badValue, filepath.Join(dir, "missing.json")} {
		_, err := c.Load(path)
		assert.Error(t, err, path)
		assert.Equal(t, []string{"a", "b"}, c.Keys(), path)
	}
}

func TestReloadReplacesRatherThanMerges(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "messages.json", `{"old": {}}`)

	c := New(path, zerolog.Nop())
	_, err := c.Reload()
	require.NoError(t, err)

	writeFile(t, dir, "messages.json", `{"new": {}}`)
	_, err = c.Reload()
	require.NoError(t, err)

	assert.Equal(t, []string{"new"}, c.Keys())
	_, ok := c.Get("old")
	assert.False(t, ok)
}

func TestNewCatalogIsEmpty(t *testing.T) {
	c := New("does-not-matter.json", zerolog.Nop())
	assert.Empty(t, c.Keys())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, "does-not-matter.json", c.Path())
}
