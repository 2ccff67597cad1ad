package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnv()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeLayout()
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnv() {
	if value, ok := os.LookupEnv(envAPIToken); ok && strings.TrimSpace(value) != "" {
		c.Server.APIToken = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv(envWorkbook); ok && strings.TrimSpace(value) != "" {
		c.Paths.Workbook = strings.TrimSpace(value)
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.Workbook, err = c.expandRelativeToData(c.Paths.Workbook); err != nil {
		return fmt.Errorf("paths.workbook: %w", err)
	}
	if c.Paths.StaticDir, err = c.expandRelativeToData(c.Paths.StaticDir); err != nil {
		return fmt.Errorf("paths.static_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

// expandRelativeToData resolves names without a directory component (or
// relative paths) against the data directory so the defaults mirror a
// self-contained project folder.
func (c *Config) expandRelativeToData(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if strings.HasPrefix(value, "~") || filepath.IsAbs(value) {
		return expandPath(value)
	}
	return expandPath(filepath.Join(c.Paths.DataDir, value))
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = defaultMaxBodyBytes
	}
	origins := c.Server.CORSOrigins[:0]
	for _, origin := range c.Server.CORSOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.Server.CORSOrigins = origins
}

func (c *Config) normalizeLayout() {
	c.Layout.PositionsFile = strings.TrimSpace(c.Layout.PositionsFile)
	if c.Layout.PositionsFile == "" {
		c.Layout.PositionsFile = defaultPositionsFile
	}
	c.Layout.OrganellesFile = strings.TrimSpace(c.Layout.OrganellesFile)
	if c.Layout.OrganellesFile == "" {
		c.Layout.OrganellesFile = defaultOrganellesFile
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
