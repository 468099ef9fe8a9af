package trellis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "localhost:8080", cfg.ListenAddr)
	assert.Equal(t, 4096, cfg.ReadBufferSize)
	assert.Equal(t, MaxPostLength, cfg.MaxBodyBytes)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("TRELLIS_LISTEN_ADDR", "0.0.0.0:9999")
	t.Setenv("TRELLIS_READ_BUFFER_SIZE", "1024")
	t.Setenv("TRELLIS_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.ListenAddr)
	assert.Equal(t, 1024, cfg.ReadBufferSize)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestNewWithConfigGuardsZeroValues(t *testing.T) {
	s := NewWithConfig(Config{LogLevel: "info"})
	assert.Equal(t, 4096, s.Config.ReadBufferSize)
	assert.Equal(t, MaxPostLength, s.Config.MaxBodyBytes)
}
