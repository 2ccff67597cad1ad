package main

import (
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"pathways/internal/config"
	"pathways/internal/docstore"
	"pathways/internal/layout"
	"pathways/internal/logging"
	"pathways/internal/workbook"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// logger returns a stderr logger for offline commands. Only warnings and
// errors are shown so command output stays readable.
func (c *commandContext) logger() *slog.Logger {
	logger, err := logging.NewFromConfig(c.configValue(), logging.Options{
		Level:            "warn",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func (c *commandContext) documentStore() *docstore.Store {
	return docstore.New(docstore.Options{Logger: c.logger()})
}

func (c *commandContext) positionsStore() (*layout.PositionsStore, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return layout.NewPositionsStore(cfg.PositionsPath(), c.documentStore(), c.logger()), nil
}

func (c *commandContext) organelleStore() (*layout.OrganelleStore, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		return nil, err
	}
	return layout.NewOrganelleStore(cfg.OrganellesPath(), c.documentStore(), c.logger()), nil
}

func (c *commandContext) workbookReader() (*workbook.Reader, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return workbook.NewReader(cfg.Paths.Workbook, c.logger()), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
