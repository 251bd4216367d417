package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.Database == "" {
		return errors.New("paths.database must be set")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.DisplayCap <= 0 {
		return errors.New("recommend.display_cap must be positive")
	}
	if r.PerSeedK <= 0 {
		return errors.New("recommend.per_seed_k must be positive")
	}
	if r.InitialSlice <= 0 {
		return errors.New("recommend.initial_slice must be positive")
	}
	if r.InitialSlice > r.PerSeedK {
		return fmt.Errorf("recommend.initial_slice (%d) must not exceed recommend.per_seed_k (%d)", r.InitialSlice, r.PerSeedK)
	}
	if r.ReplenishThreshold < 0 {
		return errors.New("recommend.replenish_threshold must be >= 0")
	}
	if r.ReplenishK <= 0 {
		return errors.New("recommend.replenish_k must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.SessionIdleMinutes < 0 {
		return errors.New("server.session_idle_minutes must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
