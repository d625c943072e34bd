package config

const (
	defaultConfigFile        = "~/.config/txrmwatch/config.toml"
	defaultDataDir           = "~/.local/share/txrmwatch"
	defaultLogDir            = "~/.local/share/txrmwatch/logs"
	defaultScanInterval      = 300
	defaultStabilityInterval = 10
	defaultStabilityDuration = 600
	defaultWatchExtension    = ".txrm"
	defaultSidecarExtension  = ".txt"
	defaultMaxConcurrentJobs = 2
	defaultExtractorCommand  = "xrm-metadata"
	defaultNtfyTimeout       = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Monitor: Monitor{
			ScanInterval:      defaultScanInterval,
			StabilityInterval: defaultStabilityInterval,
			StabilityDuration: defaultStabilityDuration,
			WatchExtension:    defaultWatchExtension,
			SidecarExtension:  defaultSidecarExtension,
			MaxConcurrentJobs: defaultMaxConcurrentJobs,
			ArrivalWatch:      true,
		},
		Extractor: Extractor{
			Command: defaultExtractorCommand,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			Completions:    true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
