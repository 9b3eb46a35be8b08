package cli

import (
	"flag"
	"time"

	"sessions-admin/internal/app"
)

// commonFlags are accepted by every subcommand that talks to the backend.
type commonFlags struct {
	api     string
	dataDir string
	storage string
	timeout time.Duration
	verbose bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.api, "api", "", "backend base URL (default $"+app.EnvBaseURL+")")
	fs.StringVar(&c.dataDir, "data-dir", "", "state directory (default ~/.sessions-admin)")
	fs.StringVar(&c.storage, "storage", "", "credential storage: file|sqlite")
	fs.DurationVar(&c.timeout, "timeout", 0, "per-request timeout")
	fs.BoolVar(&c.verbose, "verbose", false, "debug logging")
	return c
}

// resolveConfig layers flags over the environment over the defaults.
func resolveConfig(c *commonFlags) (app.Config, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return app.Config{}, err
	}
	if c.api != "" {
		cfg.API.BaseURL = c.api
	}
	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}
	if c.storage != "" {
		cfg.Storage.Driver = c.storage
	}
	if c.timeout > 0 {
		cfg.API.Timeout = c.timeout
	}
	if c.verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg.Resolve(), nil
}
