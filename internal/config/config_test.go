package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	t.Setenv("USERNAME", "")
	t.Setenv("LOGINNAME", "")
	t.Setenv("PASSWORD", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "postpulse.yaml")
	yaml := `
browser:
  headless: false
scrape:
  user: jane-doe
  since: "2023-01-01"
  fields: [urn, time, reactions, hashtags]
  max_scrolls: 25
  settle_wait: 1s
storage:
  type: jsonl
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("POSTPULSE_STORAGE_OUTPUT_PATH", "/tmp/pp")
	t.Setenv("PASSWORD", "hunter2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Browser.Headless {
		t.Error("headless should be overridden by file")
	}
	if cfg.Scrape.User != "jane-doe" {
		t.Errorf("user = %q", cfg.Scrape.User)
	}
	if diff := cmp.Diff([]string{"urn", "time", "reactions", "hashtags"}, cfg.Scrape.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if cfg.Scrape.MaxScrolls != 25 || cfg.Scrape.SettleWait != time.Second {
		t.Errorf("scrape = %+v", cfg.Scrape)
	}
	if cfg.Storage.Type != "jsonl" || cfg.Storage.OutputPath != "/tmp/pp" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Login.Password != "hunter2" {
		t.Error("PASSWORD should populate login.password")
	}
	if cfg.Login.SubmitTimeout != 30*time.Second {
		t.Errorf("submit timeout default lost: %v", cfg.Login.SubmitTimeout)
	}
	if cfg.Login.VerificationTimeout != 20*time.Minute {
		t.Errorf("verification timeout default lost: %v", cfg.Login.VerificationTimeout)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"unknown field", func(c *Config) { c.Scrape.Fields = []string{"likes"} }, "scrape.fields"},
		{"bad since", func(c *Config) { c.Scrape.Since = "yesterday" }, "scrape.since"},
		{"until before since", func(c *Config) { c.Scrape.Since = "2024-02-01"; c.Scrape.Until = "2024-01-01" }, "must be after"},
		{"negative scrolls", func(c *Config) { c.Scrape.MaxScrolls = -1 }, "max_scrolls"},
		{"storage type", func(c *Config) { c.Storage.Type = "parquet" }, "storage.type"},
		{"storage type in list", func(c *Config) { c.Storage.Type = "csv,parquet" }, "parquet"},
		{"empty storage type", func(c *Config) { c.Storage.Type = " , " }, "storage.type"},
		{"mongo without uri", func(c *Config) { c.Storage.Type = "mongodb" }, "mongo_uri"},
		{"mongo in list without uri", func(c *Config) { c.Storage.Type = "csv,mongodb" }, "mongo_uri"},
		{"submit timeout", func(c *Config) { c.Login.SubmitTimeout = 0 }, "submit_timeout"},
		{"base url", func(c *Config) { c.Scrape.BaseURL = "ftp://example.com" }, "scrape.base_url"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"poll above timeout", func(c *Config) { c.Login.VerificationPoll = time.Hour }, "verification_poll"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("error %q does not mention %q", err, tt.errSub)
			}
		})
	}
}

func TestStorageTypes(t *testing.T) {
	cfg := StorageConfig{Type: " CSV, mongodb ,,jsonl"}
	if diff := cmp.Diff([]string{"csv", "mongodb", "jsonl"}, cfg.Types()); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}

	full := DefaultConfig()
	full.Storage.Type = "csv,mongodb"
	full.Storage.MongoURI = "mongodb://localhost:27017"
	if err := Validate(full); err != nil {
		t.Errorf("fan-out storage should validate: %v", err)
	}
}

func TestLoadIgnoresOSUsername(t *testing.T) {
	t.Setenv("USERNAME", "local-account")
	t.Setenv("POSTPULSE_SCRAPE_USER", "")

	cfg, err := Load(writeConfig(t, "logging:\n  level: info\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scrape.User != "" {
		t.Errorf("user = %q, the OS account name must not select the profile", cfg.Scrape.User)
	}

	t.Setenv("POSTPULSE_SCRAPE_USER", "jane-doe")
	cfg, err = Load(writeConfig(t, "logging:\n  level: info\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scrape.User != "jane-doe" {
		t.Errorf("user = %q, want value of POSTPULSE_SCRAPE_USER", cfg.Scrape.User)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "postpulse.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-05")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local)) {
		t.Errorf("date = %v", d)
	}

	ts, err := ParseDate("2024-03-05 17:45:00")
	if err != nil {
		t.Fatal(err)
	}
	if ts.Hour() != 17 || ts.Minute() != 45 {
		t.Errorf("timestamp = %v", ts)
	}

	if z, err := ParseDate(""); err != nil || !z.IsZero() {
		t.Errorf("empty date = %v, %v", z, err)
	}
	if _, err := ParseDate("03/05/2024"); err == nil {
		t.Error("expected error for unsupported layout")
	}
}
