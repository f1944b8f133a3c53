package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeWiki(); err != nil {
		return err
	}
	if err := c.normalizeSync(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeWiki() error {
	if value, ok := os.LookupEnv(envAPIURL); ok && strings.TrimSpace(value) != "" {
		c.Wiki.APIURL = value
	}
	c.Wiki.APIURL = strings.TrimSpace(c.Wiki.APIURL)
	if c.Wiki.APIURL == "" {
		c.Wiki.APIURL = defaultAPIURL
	}
	c.Wiki.PageBaseURL = strings.TrimSpace(c.Wiki.PageBaseURL)
	if c.Wiki.PageBaseURL == "" {
		c.Wiki.PageBaseURL = defaultPageBaseURL
	}
	if !strings.HasSuffix(c.Wiki.PageBaseURL, "/") {
		c.Wiki.PageBaseURL += "/"
	}
	c.Wiki.UserAgent = strings.TrimSpace(c.Wiki.UserAgent)
	if c.Wiki.UserAgent == "" {
		c.Wiki.UserAgent = defaultUserAgent
	}
	if c.Wiki.TimeoutSeconds == 0 {
		c.Wiki.TimeoutSeconds = defaultTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeSync() error {
	if value, ok := os.LookupEnv(envThrottleMS); ok && strings.TrimSpace(value) != "" {
		ms, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w", envThrottleMS, err)
		}
		c.Sync.ThrottleMilliseconds = ms
	}
	c.Sync.BatchLimit = ClampBatchLimit(c.Sync.BatchLimit)
	return nil
}

// ClampBatchLimit bounds a listing batch size to what the allpages API accepts.
func ClampBatchLimit(limit int) int {
	switch {
	case limit < 1:
		return 1
	case limit > maxBatchLimit:
		return maxBatchLimit
	default:
		return limit
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	if len(c.Logging.StageOverrides) > 0 {
		normalized := make(map[string]string, len(c.Logging.StageOverrides))
		for stage, level := range c.Logging.StageOverrides {
			stage = strings.ToLower(strings.TrimSpace(stage))
			if stage == "" {
				continue
			}
			normalized[stage] = strings.ToLower(strings.TrimSpace(level))
		}
		c.Logging.StageOverrides = normalized
	}
}
