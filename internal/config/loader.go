package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
// A .env file in the working directory is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("POSTPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names accepted for credentials. The target user is only read
	// from POSTPULSE_SCRAPE_USER: a bare USERNAME is usually the OS account.
	_ = v.BindEnv("login.username", "POSTPULSE_LOGIN_USERNAME", "LOGINNAME")
	_ = v.BindEnv("login.password", "POSTPULSE_LOGIN_PASSWORD", "PASSWORD")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("postpulse")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".postpulse"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.window_size", cfg.Browser.WindowSize)
	v.SetDefault("browser.bin_path", cfg.Browser.BinPath)
	v.SetDefault("browser.user_data_dir", cfg.Browser.UserDataDir)
	v.SetDefault("browser.navigation_timeout", cfg.Browser.NavigationTimeout)

	v.SetDefault("login.url", cfg.Login.URL)
	v.SetDefault("login.username", cfg.Login.Username)
	v.SetDefault("login.password", cfg.Login.Password)
	v.SetDefault("login.submit_timeout", cfg.Login.SubmitTimeout)
	v.SetDefault("login.verification_timeout", cfg.Login.VerificationTimeout)
	v.SetDefault("login.verification_poll", cfg.Login.VerificationPoll)

	v.SetDefault("scrape.base_url", cfg.Scrape.BaseURL)
	v.SetDefault("scrape.user", cfg.Scrape.User)
	v.SetDefault("scrape.since", cfg.Scrape.Since)
	v.SetDefault("scrape.until", cfg.Scrape.Until)
	v.SetDefault("scrape.fields", cfg.Scrape.Fields)
	v.SetDefault("scrape.include_reactors", cfg.Scrape.IncludeReactors)
	v.SetDefault("scrape.include_hashtags", cfg.Scrape.IncludeHashtags)
	v.SetDefault("scrape.settle_wait", cfg.Scrape.SettleWait)
	v.SetDefault("scrape.max_scrolls", cfg.Scrape.MaxScrolls)
	v.SetDefault("scrape.overlay_timeout", cfg.Scrape.OverlayTimeout)
	v.SetDefault("scrape.overlay_wait", cfg.Scrape.OverlayWait)
	v.SetDefault("scrape.max_overlay_scrolls", cfg.Scrape.MaxOverlayScrolls)
	v.SetDefault("scrape.permalink_wait", cfg.Scrape.PermalinkWait)
	v.SetDefault("scrape.navigation_interval", cfg.Scrape.NavigationInterval)
	v.SetDefault("scrape.top_n", cfg.Scrape.TopN)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.mongo_collection", cfg.Storage.MongoCollection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
