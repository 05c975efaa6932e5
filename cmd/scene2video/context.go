package main

import (
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ivlev/scene2video/internal/config"
	"github.com/ivlev/scene2video/internal/logging"
)

type commandContext struct {
	configFlag *string
	logLevel   *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag, logLevel *string) *commandContext {
	return &commandContext{configFlag: configFlag, logLevel: logLevel}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(out io.Writer) *logging.Logger {
	cfg, _ := c.ensureConfig()
	level, format := "info", "auto"
	if cfg != nil {
		level, format = cfg.Logging.Level, cfg.Logging.Format
	}
	if c.logLevel != nil && strings.TrimSpace(*c.logLevel) != "" {
		level = *c.logLevel
	}
	return logging.New(logging.Config{
		Level:       level,
		Format:      format,
		Output:      out,
		ServiceName: "scene2video",
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
