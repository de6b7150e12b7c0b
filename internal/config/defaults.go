package config

const (
	defaultAuditDir        = "~/.local/share/streampanel"
	defaultLockDir         = "~/.local/share/streampanel/locks"
	defaultPlexTVBaseURL   = "https://plex.tv"
	defaultLogFormat       = "auto"
	defaultLogLevel        = "info"
	defaultMutateSeconds   = 60
	defaultVerifySeconds   = 15
	defaultActivitySeconds = 90
	defaultGlobalSeconds   = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AuditDir: defaultAuditDir,
			LockDir:  defaultLockDir,
		},
		PlexTV: PlexTV{
			BaseURL: defaultPlexTVBaseURL,
		},
		Timeouts: Timeouts{
			MutateSeconds:   defaultMutateSeconds,
			VerifySeconds:   defaultVerifySeconds,
			ActivitySeconds: defaultActivitySeconds,
			GlobalSeconds:   defaultGlobalSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Audit: Audit{
			Enabled: true,
		},
	}
}
