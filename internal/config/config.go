package config

import (
	"strings"
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for PostPulse.
type Config struct {
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Login   LoginConfig   `mapstructure:"login"   yaml:"login"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"  yaml:"scrape"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// BrowserConfig controls the Chromium process driven through Rod.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless"           yaml:"headless"`
	WindowSize        string        `mapstructure:"window_size"        yaml:"window_size"`
	BinPath           string        `mapstructure:"bin_path"           yaml:"bin_path"`
	UserDataDir       string        `mapstructure:"user_data_dir"      yaml:"user_data_dir"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// LoginConfig controls the login form and the step-up verification wait.
type LoginConfig struct {
	URL                 string        `mapstructure:"url"                  yaml:"url"`
	Username            string        `mapstructure:"username"             yaml:"username"`
	Password            string        `mapstructure:"password"             yaml:"password"`
	SubmitTimeout       time.Duration `mapstructure:"submit_timeout"       yaml:"submit_timeout"`
	VerificationTimeout time.Duration `mapstructure:"verification_timeout" yaml:"verification_timeout"`
	VerificationPoll    time.Duration `mapstructure:"verification_poll"    yaml:"verification_poll"`
}

// ScrapeConfig controls what is extracted and how long each wait lasts.
type ScrapeConfig struct {
	BaseURL            string        `mapstructure:"base_url"            yaml:"base_url"`
	User               string        `mapstructure:"user"                yaml:"user"`
	Since              string        `mapstructure:"since"               yaml:"since"`
	Until              string        `mapstructure:"until"               yaml:"until"`
	Fields             []string      `mapstructure:"fields"              yaml:"fields"`
	IncludeReactors    bool          `mapstructure:"include_reactors"    yaml:"include_reactors"`
	IncludeHashtags    bool          `mapstructure:"include_hashtags"    yaml:"include_hashtags"`
	SettleWait         time.Duration `mapstructure:"settle_wait"         yaml:"settle_wait"`
	MaxScrolls         int           `mapstructure:"max_scrolls"         yaml:"max_scrolls"`
	OverlayTimeout     time.Duration `mapstructure:"overlay_timeout"     yaml:"overlay_timeout"`
	OverlayWait        time.Duration `mapstructure:"overlay_wait"        yaml:"overlay_wait"`
	MaxOverlayScrolls  int           `mapstructure:"max_overlay_scrolls" yaml:"max_overlay_scrolls"`
	PermalinkWait      time.Duration `mapstructure:"permalink_wait"      yaml:"permalink_wait"`
	NavigationInterval time.Duration `mapstructure:"navigation_interval" yaml:"navigation_interval"`
	TopN               int           `mapstructure:"top_n"               yaml:"top_n"`
}

// StorageConfig controls output/storage. Type may list several backends
// separated by commas, e.g. "csv,mongodb".
type StorageConfig struct {
	Type            string `mapstructure:"type"             yaml:"type"`
	OutputPath      string `mapstructure:"output_path"      yaml:"output_path"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// Types returns the backends named by Type, lowercased and trimmed.
func (c StorageConfig) Types() []string {
	var types []string
	for _, t := range strings.Split(c.Type, ",") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			types = append(types, t)
		}
	}
	return types
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the run counters endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:          true,
			WindowSize:        "1920,1080", // fixed size keeps scrolling deterministic when headless
			NavigationTimeout: 30 * time.Second,
		},
		Login: LoginConfig{
			URL:                 "https://www.linkedin.com/login",
			SubmitTimeout:       30 * time.Second,
			VerificationTimeout: 20 * time.Minute,
			VerificationPoll:    5 * time.Second,
		},
		Scrape: ScrapeConfig{
			BaseURL:            "https://www.linkedin.com",
			Fields:             []string{"urn", "time", "impressions", "reactions", "comments"},
			SettleWait:         4 * time.Second,
			OverlayTimeout:     10 * time.Second,
			OverlayWait:        2 * time.Second,
			MaxOverlayScrolls:  200,
			PermalinkWait:      4 * time.Second,
			NavigationInterval: 2 * time.Second,
			TopN:               10,
		},
		Storage: StorageConfig{
			Type:            "csv",
			OutputPath:      "./output",
			MongoDatabase:   "postpulse",
			MongoCollection: "posts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
