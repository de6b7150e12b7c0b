package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	AuditDir string `toml:"audit_dir"`
	LockDir  string `toml:"lock_dir"`
}

// PlexTV contains configuration for the plex.tv control API.
type PlexTV struct {
	BaseURL string `toml:"base_url"`
}

// Timeouts contains the per-operation deadline budgets, in seconds. They are
// threaded through every remote call as context deadlines; there is no
// signal-based alarm anywhere.
type Timeouts struct {
	MutateSeconds   int `toml:"mutate_seconds"`
	VerifySeconds   int `toml:"verify_seconds"`
	ActivitySeconds int `toml:"activity_seconds"`
	GlobalSeconds   int `toml:"global_seconds"`
}

// Logging contains configuration for diagnostic output on stderr.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Audit contains configuration for the local mutation audit log.
type Audit struct {
	Enabled bool `toml:"enabled"`
}

// Config encapsulates all configuration values for streampanel.
type Config struct {
	Paths    Paths    `toml:"paths"`
	PlexTV   PlexTV   `toml:"plextv"`
	Timeouts Timeouts `toml:"timeouts"`
	Logging  Logging  `toml:"logging"`
	Audit    Audit    `toml:"audit"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/streampanel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. It reports the resolved
// path and whether a file was actually found there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("streampanel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the tool writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LockDir}
	if c.Audit.Enabled {
		dirs = append(dirs, c.Paths.AuditDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CreateSample writes the embedded sample configuration to the target path.
func CreateSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// MutateTimeout is the deadline budget for invite, update, and remove
// operations.
func (c *Config) MutateTimeout() time.Duration {
	return time.Duration(c.Timeouts.MutateSeconds) * time.Second
}

// VerifyTimeout is the deadline budget for read-only verification checks.
func (c *Config) VerifyTimeout() time.Duration {
	return time.Duration(c.Timeouts.VerifySeconds) * time.Second
}

// ActivityTimeout is the deadline budget for activity enumeration.
func (c *Config) ActivityTimeout() time.Duration {
	return time.Duration(c.Timeouts.ActivitySeconds) * time.Second
}

// GlobalTimeout is the ceiling across a whole invocation.
func (c *Config) GlobalTimeout() time.Duration {
	return time.Duration(c.Timeouts.GlobalSeconds) * time.Second
}

// ExpandPath resolves tilde shortcuts and returns an absolute cleaned path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
