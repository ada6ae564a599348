package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/IshaanNene/PostPulse/internal/types"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be > 0")
	}

	if cfg.Login.SubmitTimeout <= 0 {
		return fmt.Errorf("login.submit_timeout must be > 0")
	}
	if cfg.Login.VerificationTimeout <= 0 {
		return fmt.Errorf("login.verification_timeout must be > 0")
	}
	if cfg.Login.VerificationPoll <= 0 || cfg.Login.VerificationPoll > cfg.Login.VerificationTimeout {
		return fmt.Errorf("login.verification_poll must be > 0 and <= verification_timeout")
	}

	if err := ValidateURL(cfg.Scrape.BaseURL); err != nil {
		return fmt.Errorf("scrape.base_url: %w", err)
	}
	if _, err := types.ParseFieldSet(cfg.Scrape.Fields); err != nil {
		return fmt.Errorf("scrape.fields: %w", err)
	}
	since, err := ParseDate(cfg.Scrape.Since)
	if err != nil {
		return fmt.Errorf("scrape.since: %w", err)
	}
	until, err := ParseDate(cfg.Scrape.Until)
	if err != nil {
		return fmt.Errorf("scrape.until: %w", err)
	}
	if !since.IsZero() && !until.IsZero() && !until.After(since) {
		return fmt.Errorf("scrape.until (%s) must be after scrape.since (%s)", cfg.Scrape.Until, cfg.Scrape.Since)
	}
	if cfg.Scrape.SettleWait <= 0 {
		return fmt.Errorf("scrape.settle_wait must be > 0")
	}
	if cfg.Scrape.MaxScrolls < 0 {
		return fmt.Errorf("scrape.max_scrolls must be >= 0, got %d", cfg.Scrape.MaxScrolls)
	}
	if cfg.Scrape.OverlayTimeout <= 0 || cfg.Scrape.OverlayWait <= 0 {
		return fmt.Errorf("scrape.overlay_timeout and scrape.overlay_wait must be > 0")
	}
	if cfg.Scrape.MaxOverlayScrolls < 1 {
		return fmt.Errorf("scrape.max_overlay_scrolls must be >= 1, got %d", cfg.Scrape.MaxOverlayScrolls)
	}
	if cfg.Scrape.PermalinkWait <= 0 {
		return fmt.Errorf("scrape.permalink_wait must be > 0")
	}
	if cfg.Scrape.NavigationInterval < 0 {
		return fmt.Errorf("scrape.navigation_interval must be >= 0")
	}
	if cfg.Scrape.TopN < 1 {
		return fmt.Errorf("scrape.top_n must be >= 1, got %d", cfg.Scrape.TopN)
	}

	validStorageTypes := map[string]bool{
		"json": true, "jsonl": true, "csv": true, "mongodb": true,
	}
	storageTypes := cfg.Storage.Types()
	if len(storageTypes) == 0 {
		return fmt.Errorf("storage.type is required (valid: json, jsonl, csv, mongodb)")
	}
	for _, t := range storageTypes {
		if !validStorageTypes[t] {
			return fmt.Errorf("storage.type %q is not supported (valid: json, jsonl, csv, mongodb)", t)
		}
		if t == "mongodb" && cfg.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri is required for mongodb storage")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// ParseDate accepts "2006-01-02" or "2006-01-02 15:04:05" in local time.
// An empty string means no bound and yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(types.TimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or %q, got %q", types.TimeLayout, s)
	}
	return t, nil
}
