package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRegistry(); err != nil {
		return err
	}
	if c.Flow.Workers < 0 {
		return errors.New("flow.workers must not be negative")
	}
	if c.Ingest.MinArea < 0 {
		return errors.New("ingest.min_area must not be negative")
	}
	return c.validateLogging()
}

func (c *Config) validateRegistry() error {
	switch c.Registry.Backend {
	case RegistryBackendJSON, RegistryBackendSQLite:
		return nil
	default:
		return fmt.Errorf("registry.backend must be %q or %q, got %q",
			RegistryBackendJSON, RegistryBackendSQLite, c.Registry.Backend)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
