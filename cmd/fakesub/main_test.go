package main

import (
	"bytes"
	"testing"

	"github.com/orchestra-mcp/fakesub/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFlagsOverrideDefaults(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--port", "9000", "--catalog", "msgs.json", "--send-keepalives"}))

	var f flags
	f.port, _ = cmd.Flags().GetInt("port")
	f.catalog, _ = cmd.Flags().GetString("catalog")
	f.sendKeepalives, _ = cmd.Flags().GetBool("send-keepalives")

	cfg, err := loadConfig(cmd, f)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "msgs.json", cfg.CatalogFile)
	assert.True(t, cfg.SendKeepalives)
	assert.Equal(t, "localhost", cfg.Host)
}

func TestLoadConfigRejectsInvalidFlags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--log-format", "xml"}))

	_, err := loadConfig(cmd, flags{logFormat: "xml"})
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	logger, err := newLogger(cfg, &buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)

	cfg.LogLevel = "loud"
	_, err = newLogger(cfg, &buf)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "fakesub dev")
}
