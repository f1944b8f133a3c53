package config

const (
	defaultConfigPath           = "~/.config/gamewiki/config.toml"
	projectConfigName           = "gamewiki.toml"
	defaultDataDir              = "~/.local/share/gamewiki"
	defaultLogDir               = "~/.local/share/gamewiki/logs"
	defaultAPIURL               = "https://www.pcgamingwiki.com/w/api.php"
	defaultPageBaseURL          = "https://www.pcgamingwiki.com/wiki/"
	defaultUserAgent            = "gamewiki/dev (+https://www.pcgamingwiki.com)"
	defaultTimeoutSeconds       = 30
	defaultBatchLimit           = 50
	maxBatchLimit               = 500
	defaultThrottleMilliseconds = 1000
	defaultWorkers              = 1
	defaultQueuePollInterval    = 2
	defaultErrorRetryInterval   = 10
	defaultHeartbeatInterval    = 15
	defaultHeartbeatTimeout     = 120
	defaultMaxAttempts          = 3
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30

	envAPIURL     = "PCGW_API_URL"
	envThrottleMS = "PCGW_THROTTLE_MS"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Wiki: Wiki{
			APIURL:         defaultAPIURL,
			PageBaseURL:    defaultPageBaseURL,
			UserAgent:      defaultUserAgent,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Sync: Sync{
			BatchLimit:           defaultBatchLimit,
			ThrottleMilliseconds: defaultThrottleMilliseconds,
		},
		Workflow: Workflow{
			Workers:            defaultWorkers,
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
			MaxAttempts:        defaultMaxAttempts,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
