package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"gamewiki/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("PCGW_API_URL", "")
	t.Setenv("PCGW_THROTTLE_MS", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "gamewiki")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.CatalogPath() != filepath.Join(wantData, "catalog.db") {
		t.Fatalf("unexpected catalog path: %q", cfg.CatalogPath())
	}
	if cfg.QueuePath() != filepath.Join(wantData, "queue.db") {
		t.Fatalf("unexpected queue path: %q", cfg.QueuePath())
	}
	if cfg.Wiki.APIURL != config.Default().Wiki.APIURL {
		t.Fatalf("unexpected api url: %q", cfg.Wiki.APIURL)
	}
	if cfg.Sync.BatchLimit != 50 {
		t.Fatalf("expected default batch limit 50, got %d", cfg.Sync.BatchLimit)
	}
	if cfg.Throttle().Milliseconds() != 1000 {
		t.Fatalf("expected default throttle 1s, got %s", cfg.Throttle())
	}
	if cfg.Workflow.Workers != 1 {
		t.Fatalf("expected a single worker by default, got %d", cfg.Workflow.Workers)
	}
	if got := cfg.FilePathBaseURL(); got != "https://www.pcgamingwiki.com/wiki/Special:FilePath/" {
		t.Fatalf("unexpected file path base: %q", got)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("PCGW_API_URL", "")
	t.Setenv("PCGW_THROTTLE_MS", "")

	configPath := filepath.Join(t.TempDir(), "custom.toml")
	content := `
[paths]
data_dir = "~/wiki-data"
log_dir = "/tmp/gamewiki-logs"

[wiki]
api_url = "http://wiki.local/api.php"
page_base_url = "http://wiki.local/wiki"
requests_per_second = 2.5

[sync]
batch_limit = 9000
throttle_milliseconds = 0
fetch_wikitext = true

[workflow]
workers = 4

[logging]
format = "JSON"
level = "DEBUG"

[logging.stage_overrides]
Listing = "WARN"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, "wiki-data") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Wiki.PageBaseURL != "http://wiki.local/wiki/" {
		t.Fatalf("expected trailing slash on page base, got %q", cfg.Wiki.PageBaseURL)
	}
	if cfg.Wiki.RequestsPerSecond != 2.5 {
		t.Fatalf("unexpected requests per second: %v", cfg.Wiki.RequestsPerSecond)
	}
	if cfg.Sync.BatchLimit != 500 {
		t.Fatalf("expected batch limit clamped to 500, got %d", cfg.Sync.BatchLimit)
	}
	if cfg.Throttle() != 0 {
		t.Fatalf("expected throttle disabled, got %s", cfg.Throttle())
	}
	if !cfg.Sync.FetchWikitext {
		t.Fatal("expected fetch_wikitext enabled")
	}
	if cfg.Workflow.Workers != 4 {
		t.Fatalf("unexpected workers: %d", cfg.Workflow.Workers)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Logging.StageOverrides["listing"] != "warn" {
		t.Fatalf("expected normalized stage override, got %v", cfg.Logging.StageOverrides)
	}
}

func TestEnvVarsOverrideConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PCGW_API_URL", "https://mirror.example/w/api.php")
	t.Setenv("PCGW_THROTTLE_MS", "250")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[wiki]
api_url = "http://wiki.local/api.php"

[sync]
throttle_milliseconds = 5000
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Wiki.APIURL != "https://mirror.example/w/api.php" {
		t.Fatalf("expected env api url, got %q", cfg.Wiki.APIURL)
	}
	if cfg.Sync.ThrottleMilliseconds != 250 {
		t.Fatalf("expected env throttle, got %d", cfg.Sync.ThrottleMilliseconds)
	}
}

func TestLoadRejectsInvalidThrottleEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PCGW_THROTTLE_MS", "soon")
	if _, _, _, err := config.Load(""); err == nil {
		t.Fatal("expected error for non-numeric throttle env")
	}
}

func TestClampBatchLimit(t *testing.T) {
	cases := map[int]int{-3: 1, 0: 1, 1: 1, 50: 50, 500: 500, 501: 500}
	for input, want := range cases {
		if got := config.ClampBatchLimit(input); got != want {
			t.Fatalf("ClampBatchLimit(%d) = %d, want %d", input, got, want)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path, false); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if err := config.CreateSample(path, false); !errors.Is(err, config.ErrConfigExists) {
		t.Fatalf("expected ErrConfigExists on second write, got %v", err)
	}
	if err := config.CreateSample(path, true); err != nil {
		t.Fatalf("CreateSample overwrite failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "PCGW_API_URL") {
		t.Fatalf("sample config missing env hint: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DataDir, "gamewiki") {
		t.Fatalf("expected data dir to contain gamewiki, got %q", cfg.Paths.DataDir)
	}
	if cfg.Sync.BatchLimit != 50 {
		t.Fatalf("unexpected sample batch limit: %d", cfg.Sync.BatchLimit)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"relative api url":  func(c *config.Config) { c.Wiki.APIURL = "/w/api.php" },
		"negative throttle": func(c *config.Config) { c.Sync.ThrottleMilliseconds = -1 },
		"zero workers":      func(c *config.Config) { c.Workflow.Workers = 0 },
		"heartbeat order":   func(c *config.Config) { c.Workflow.HeartbeatTimeout = c.Workflow.HeartbeatInterval },
		"negative rps":      func(c *config.Config) { c.Wiki.RequestsPerSecond = -1 },
		"bad override":      func(c *config.Config) { c.Logging.StageOverrides = map[string]string{"page": "loud"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s", dir)
		}
	}
}
