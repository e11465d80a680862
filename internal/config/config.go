// File path: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultAddr          = ":8080"
	defaultDatabasePath  = "data/transcriptflow.db"
	defaultRecorderLimit = 10
)

// Server contains the HTTP bind configuration.
type Server struct {
	Addr string `toml:"addr"`
}

// Storage contains the state database configuration.
type Storage struct {
	DatabasePath string `toml:"database_path"`
}

// Recorder contains the third-party meeting-recorder integration settings.
// The API key itself comes from the environment, never the config file.
type Recorder struct {
	Endpoint     string `toml:"endpoint"`
	DefaultLimit int    `toml:"default_limit"`
}

// Config is the full application configuration, loaded from an optional
// TOML file and overridable through the environment.
type Config struct {
	Server   Server   `toml:"server"`
	Storage  Storage  `toml:"storage"`
	Recorder Recorder `toml:"recorder"`
}

func defaults() Config {
	return Config{
		Server:   Server{Addr: defaultAddr},
		Storage:  Storage{DatabasePath: defaultDatabasePath},
		Recorder: Recorder{DefaultLimit: defaultRecorderLimit},
	}
}

// Load reads the config file at path when it exists, applies defaults for
// anything unset, then lets environment variables win. A missing file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := defaults()
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		data, err := os.ReadFile(filepath.Clean(trimmed))
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if addr := strings.TrimSpace(os.Getenv("TRANSCRIPTFLOW_ADDR")); addr != "" {
		cfg.Server.Addr = addr
	}
	if path := strings.TrimSpace(os.Getenv("TRANSCRIPTFLOW_DB")); path != "" {
		cfg.Storage.DatabasePath = path
	}
	if endpoint := strings.TrimSpace(os.Getenv("FIREFLIES_ENDPOINT")); endpoint != "" {
		cfg.Recorder.Endpoint = endpoint
	}
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server addr required")
	}
	if strings.TrimSpace(c.Storage.DatabasePath) == "" {
		return errors.New("storage database_path required")
	}
	if c.Recorder.DefaultLimit <= 0 {
		return errors.New("recorder default_limit must be positive")
	}
	return nil
}
