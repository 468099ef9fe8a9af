package trellis

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config holds the server's tunables, populated from TRELLIS_* environment
// variables.
type Config struct {
	ListenAddr     string `split_words:"true" default:"localhost:8080"`
	ReadBufferSize int    `split_words:"true" default:"4096"`
	MaxBodyBytes   int    `split_words:"true" default:"2097152"`
	LogLevel       string `split_words:"true" default:"info"`
}

// DefaultConfig mirrors the envconfig defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:     "localhost:8080",
		ReadBufferSize: 4096,
		MaxBodyBytes:   MaxPostLength,
		LogLevel:       "info",
	}
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("trellis", &cfg); err != nil {
		return cfg, errors.Wrap(err, "processing environment")
	}
	return cfg, nil
}
