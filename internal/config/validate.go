package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePlexTV(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePlexTV() error {
	if c.PlexTV.BaseURL == "" {
		return errors.New("plextv.base_url must be set")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	budgets := map[string]int{
		"timeouts.mutate_seconds":   c.Timeouts.MutateSeconds,
		"timeouts.verify_seconds":   c.Timeouts.VerifySeconds,
		"timeouts.activity_seconds": c.Timeouts.ActivitySeconds,
		"timeouts.global_seconds":   c.Timeouts.GlobalSeconds,
	}
	for name, value := range budgets {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Timeouts.GlobalSeconds < c.Timeouts.MutateSeconds {
		return errors.New("timeouts.global_seconds must cover timeouts.mutate_seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
