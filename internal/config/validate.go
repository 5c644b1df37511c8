package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateCleanup(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		return errors.New("paths.workspace_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		return errors.New("paths.database_path must be set")
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind must be host:port, got %q: %w", c.Server.Bind, err)
	}
	if c.Server.MaxFiles < 2 {
		return errors.New("server.max_files must be at least 2 (a merge needs two inputs)")
	}
	if c.Server.MaxRequestBytes <= 0 {
		return errors.New("server.max_request_bytes must be positive")
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	if strings.TrimSpace(c.FFmpeg.Binary) == "" {
		return errors.New("ffmpeg.binary must be set")
	}
	if strings.TrimSpace(c.FFmpeg.ProbeBinary) == "" {
		return errors.New("ffmpeg.probe_binary must be set")
	}
	if strings.TrimSpace(c.FFmpeg.Preset) == "" {
		return errors.New("ffmpeg.preset must be set")
	}
	if c.FFmpeg.Timeout < 0 {
		return errors.New("ffmpeg.timeout must be >= 0 (seconds, 0 disables the bound)")
	}
	return nil
}

func (c *Config) validateCleanup() error {
	if err := ensurePositiveMap(map[string]int{
		"cleanup.sweep_interval": c.Cleanup.SweepInterval,
		"cleanup.max_age":        c.Cleanup.MaxAge,
	}); err != nil {
		return err
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
