package main

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"splice/internal/api"
	"splice/internal/config"
	"splice/internal/history"
)

type commandContext struct {
	addressFlag *string
	configFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(addressFlag, configFlag *string) *commandContext {
	return &commandContext{
		addressFlag: addressFlag,
		configFlag:  configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) daemonAddress() string {
	if c.addressFlag != nil {
		if addr := strings.TrimSpace(*c.addressFlag); addr != "" {
			return addr
		}
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.Server.Bind
	}
	return ""
}

func (c *commandContext) apiClient() *api.Client {
	return api.NewClient(c.daemonAddress(), nil)
}

// withJobSource reaches the daemon API when one is running at the configured
// address, and otherwise falls back to reading the job journal directly.
// Exactly one of client and journal is non-nil inside fn.
func (c *commandContext) withJobSource(ctx context.Context, fn func(client *api.Client, journal *history.Store) error) error {
	client := c.apiClient()

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	_, pingErr := client.Status(pingCtx)
	cancel()
	if pingErr == nil {
		return fn(client, nil)
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	journal, err := history.Open(cfg.Paths.DatabasePath)
	if err != nil {
		return err
	}
	defer journal.Close()
	return fn(nil, journal)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
