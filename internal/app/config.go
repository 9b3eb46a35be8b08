package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"sessions-admin/internal/api"
	"sessions-admin/internal/storage"
)

const (
	EnvBaseURL  = "SESSIONS_API_BASE_URL"
	EnvTimeout  = "SESSIONS_API_TIMEOUT"
	EnvStorage  = "SESSIONS_STORAGE"
	EnvDataDir  = "SESSIONS_DATA_DIR"
	EnvLogLevel = "SESSIONS_LOG_LEVEL"
)

type Config struct {
	API struct {
		BaseURL string
		Timeout time.Duration
	}
	Storage struct {
		Driver string
		Path   string
	}
	Logging struct {
		Level string
		File  string
	}
	DataDir string
}

func DefaultConfig() Config {
	cfg := Config{}
	cfg.API.BaseURL = api.DefaultBaseURL
	cfg.API.Timeout = 30 * time.Second
	cfg.Storage.Driver = storage.DriverFile
	cfg.Storage.Path = ""
	cfg.Logging.Level = "info"
	cfg.Logging.File = ""
	cfg.DataDir = ""
	return cfg
}

// LoadConfig returns the defaults overridden by a .env file in the working
// directory, when there is one, and then by the process environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the SESSIONS_* variables. Every invalid
// value is reported, not just the first.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	get := func(key string) (string, bool) {
		value, ok := lookup(key)
		value = strings.TrimSpace(value)
		return value, ok && value != ""
	}

	if value, ok := get(EnvBaseURL); ok {
		if err := validateBaseURL(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvBaseURL, err))
		} else {
			c.API.BaseURL = value
		}
	}
	if value, ok := get(EnvTimeout); ok {
		timeout, err := time.ParseDuration(value)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", EnvTimeout, err))
		case timeout < 0:
			errs = append(errs, fmt.Errorf("%s: must not be negative", EnvTimeout))
		default:
			c.API.Timeout = timeout
		}
	}
	if value, ok := get(EnvStorage); ok {
		if value != storage.DriverFile && value != storage.DriverSQLite {
			errs = append(errs, fmt.Errorf("%s: unknown driver %q", EnvStorage, value))
		} else {
			c.Storage.Driver = value
		}
	}
	if value, ok := get(EnvDataDir); ok {
		c.DataDir = value
	}
	if value, ok := get(EnvLogLevel); ok {
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			c.Logging.Level = strings.ToLower(value)
		default:
			errs = append(errs, fmt.Errorf("%s: unknown level %q", EnvLogLevel, value))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// Resolve fills the paths that derive from DataDir.
func (c Config) Resolve() Config {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.Getenv("HOME")
		}
		c.DataDir = filepath.Join(home, ".sessions-admin")
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = storage.DriverFile
	}
	if c.Storage.Path == "" {
		name := "state.json"
		if c.Storage.Driver == storage.DriverSQLite {
			name = "state.db"
		}
		c.Storage.Path = filepath.Join(c.DataDir, name)
	}
	if c.Logging.File == "" {
		c.Logging.File = filepath.Join(c.DataDir, "sessions-admin.log")
	}
	return c
}
