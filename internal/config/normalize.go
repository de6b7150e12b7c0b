package config

import "strings"

func (c *Config) normalize() error {
	expanded, err := ExpandPath(c.Paths.AuditDir)
	if err != nil {
		return err
	}
	c.Paths.AuditDir = expanded

	expanded, err = ExpandPath(c.Paths.LockDir)
	if err != nil {
		return err
	}
	c.Paths.LockDir = expanded

	c.PlexTV.BaseURL = strings.TrimRight(strings.TrimSpace(c.PlexTV.BaseURL), "/")
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
