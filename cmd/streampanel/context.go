package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/mattn/go-isatty"

	"streampanel/internal/access"
	"streampanel/internal/activity"
	"streampanel/internal/auditlog"
	"streampanel/internal/config"
	"streampanel/internal/logging"
	"streampanel/internal/plextv"
	"streampanel/internal/services"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
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
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the stderr diagnostic logger; stdout is reserved for
// the single JSON result document.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}

		format := cfg.Logging.Format
		if format == "auto" {
			if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
				format = "console"
			} else {
				format = "json"
			}
		}

		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: format,
			Output: os.Stderr,
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// operationContext derives the invocation context: the global deadline
// ceiling plus the fields every log line should carry.
func (c *commandContext) operationContext(operation, serverName string) (context.Context, context.CancelFunc, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	ctx := context.Background()
	ctx = services.WithCorrelationID(ctx, services.NewCorrelationID())
	ctx = services.WithOperation(ctx, operation)
	ctx = services.WithServerName(ctx, serverName)
	ctx, cancel := context.WithTimeout(ctx, cfg.GlobalTimeout())
	return ctx, cancel, nil
}

func (c *commandContext) newClient() (*plextv.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return plextv.NewClient(cfg.PlexTV.BaseURL, http.DefaultClient, logger), nil
}

// newAccessService assembles the operations service. The returned store is
// nil when auditing is disabled; the caller closes it when set.
func (c *commandContext) newAccessService() (*access.Service, *auditlog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	client, err := c.newClient()
	if err != nil {
		return nil, nil, err
	}

	var (
		store    *auditlog.Store
		recorder access.AuditRecorder
	)
	if cfg.Audit.Enabled {
		store, err = auditlog.Open(cfg, logger)
		if err != nil {
			// Auditing is best-effort; the mutation matters more than its
			// record.
			logger.Warn("audit log unavailable", logging.Error(err))
		} else {
			recorder = store
		}
	}

	budgets := access.Budgets{Mutate: cfg.MutateTimeout(), Verify: cfg.VerifyTimeout()}
	return access.NewService(client, budgets, recorder, logger), store, nil
}

func (c *commandContext) newCollector() (*activity.Collector, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	client, err := c.newClient()
	if err != nil {
		return nil, err
	}
	return activity.NewCollector(client, cfg.ActivityTimeout(), logger), nil
}

// lockServer serializes mutating operations per server across concurrent
// invocations on this host. Reads never lock.
func (c *commandContext) lockServer(serverName string) (func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lockName := fmt.Sprintf("server-%s.lock", sanitizeLockName(serverName))
	lock := flock.New(filepath.Join(cfg.Paths.LockDir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire server lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another streampanel operation is already running against server %q", serverName)
	}
	return func() { _ = lock.Unlock() }, nil
}

func sanitizeLockName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if mapped == "" {
		return "default"
	}
	return mapped
}
