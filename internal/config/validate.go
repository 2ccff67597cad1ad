package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLayout(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.Workbook == "" {
		return errors.New("paths.workbook must be set")
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q: %w", c.Server.Bind, err)
	}
	if c.Server.MaxBodyBytes < 0 {
		return errors.New("server.max_body_bytes must be positive")
	}
	return nil
}

func (c *Config) validateLayout() error {
	if c.PositionsPath() == c.OrganellesPath() {
		return errors.New("layout.positions_file and layout.organelles_file must differ")
	}
	for key, name := range map[string]string{
		"layout.positions_file":  c.Layout.PositionsFile,
		"layout.organelles_file": c.Layout.OrganellesFile,
	} {
		if base := filepath.Base(name); base == "." || base == string(filepath.Separator) {
			return fmt.Errorf("%s must name a file, got %q", key, name)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}
