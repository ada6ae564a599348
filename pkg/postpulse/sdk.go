// Package postpulse provides a public SDK for embedding PostPulse as a library.
//
// Example usage:
//
//	client := postpulse.New(
//	    postpulse.WithCredentials("me@example.com", "secret"),
//	    postpulse.WithFields("urn", "time", "reactions", "reactors"),
//	    postpulse.WithSince("2024-01-01"),
//	    postpulse.WithOutput("csv", "./output"),
//	)
//	defer client.Close()
//
//	res, err := client.Run(ctx, "jane-doe")
//	top, _ := res.Top(types.FieldReactors, 10)
package postpulse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/IshaanNene/PostPulse/internal/analyzer"
	"github.com/IshaanNene/PostPulse/internal/automation"
	"github.com/IshaanNene/PostPulse/internal/config"
	"github.com/IshaanNene/PostPulse/internal/observability"
	"github.com/IshaanNene/PostPulse/internal/storage"
	"github.com/IshaanNene/PostPulse/internal/types"
)

// Client drives one browser session through login, analysis and storage.
type Client struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	browser *automation.Browser
}

// Option configures a Client.
type Option func(*config.Config)

// WithConfig replaces the whole configuration. Options after it still apply.
func WithConfig(cfg *config.Config) Option {
	return func(c *config.Config) { *c = *cfg }
}

// WithCredentials sets the login credentials.
func WithCredentials(username, password string) Option {
	return func(c *config.Config) {
		c.Login.Username = username
		c.Login.Password = password
	}
}

// WithHeadless runs the browser without a window. A verification challenge
// then fails the login instead of waiting for the user.
func WithHeadless(headless bool) Option {
	return func(c *config.Config) { c.Browser.Headless = headless }
}

// WithFields selects the extracted fields by name.
func WithFields(names ...string) Option {
	return func(c *config.Config) { c.Scrape.Fields = names }
}

// WithSince sets the earliest publish date, "2006-01-02" or "2006-01-02 15:04:05".
func WithSince(date string) Option {
	return func(c *config.Config) { c.Scrape.Since = date }
}

// WithUntil sets the exclusive latest publish date.
func WithUntil(date string) Option {
	return func(c *config.Config) { c.Scrape.Until = date }
}

// WithMaxScrolls caps the number of load steps on the activity page.
func WithMaxScrolls(n int) Option {
	return func(c *config.Config) { c.Scrape.MaxScrolls = n }
}

// WithSettleWait sets the wait after each scroll.
func WithSettleWait(d time.Duration) Option {
	return func(c *config.Config) { c.Scrape.SettleWait = d }
}

// WithOutput sets the output format and path.
func WithOutput(format, path string) Option {
	return func(c *config.Config) {
		c.Storage.Type = format
		c.Storage.OutputPath = path
	}
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// New creates a new Client with the given options.
func New(opts ...Option) *Client {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	}
	logger := slog.New(handler)

	return &Client{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(logger),
	}
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger { return c.logger }

// Config returns the effective configuration.
func (c *Client) Config() *config.Config { return c.cfg }

// Metrics returns the client's run counters.
func (c *Client) Metrics() *observability.Metrics { return c.metrics }

// Open launches the browser and logs in. It is a no-op when already open.
func (c *Client) Open(ctx context.Context) error {
	if c.browser != nil {
		return nil
	}
	if err := config.Validate(c.cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	b, err := automation.Launch(ctx, c.cfg.Browser, c.logger)
	if err != nil {
		return err
	}
	creds := automation.Credentials{Username: c.cfg.Login.Username, Password: c.cfg.Login.Password}
	if err := automation.Login(ctx, b, c.cfg.Login, creds, c.logger); err != nil {
		_ = b.Close()
		return err
	}
	c.browser = b
	return nil
}

// Request builds an analyzer request for user from the configuration.
func (c *Client) Request(user string) (analyzer.Request, error) {
	fields, err := types.ParseFieldSet(c.cfg.Scrape.Fields)
	if err != nil {
		return analyzer.Request{}, err
	}
	if c.cfg.Scrape.IncludeReactors {
		fields = fields.With(types.FieldReactors)
	}
	if c.cfg.Scrape.IncludeHashtags {
		fields = fields.With(types.FieldHashtags)
	}
	since, err := config.ParseDate(c.cfg.Scrape.Since)
	if err != nil {
		return analyzer.Request{}, fmt.Errorf("since: %w", err)
	}
	until, err := config.ParseDate(c.cfg.Scrape.Until)
	if err != nil {
		return analyzer.Request{}, fmt.Errorf("until: %w", err)
	}
	return analyzer.Request{User: user, Since: since, Until: until, Fields: fields}, nil
}

// Analyze runs one analysis for user on the open session.
func (c *Client) Analyze(ctx context.Context, user string) (*analyzer.Result, error) {
	if c.browser == nil {
		return nil, errors.New("postpulse: client is not open")
	}
	req, err := c.Request(user)
	if err != nil {
		return nil, err
	}
	return analyzer.New(c.cfg.Scrape, c.logger, c.metrics).Analyze(ctx, c.browser, req)
}

// Save writes res with the configured storage backend.
func (c *Client) Save(res *analyzer.Result) error {
	store, err := storage.New(c.cfg.Storage, res.User, res.Fields, c.logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	if err := store.Store(res.Posts); err != nil {
		_ = store.Close()
		return err
	}
	if err := store.Close(); err != nil {
		return err
	}
	c.metrics.PostsStored.Add(int64(len(res.Posts)))
	return nil
}

// Run opens the session if needed, analyzes user and saves the result. A
// partial result is saved and returned together with the run's error.
func (c *Client) Run(ctx context.Context, user string) (*analyzer.Result, error) {
	if err := c.Open(ctx); err != nil {
		return nil, err
	}
	res, err := c.Analyze(ctx, user)
	if res != nil {
		if saveErr := c.Save(res); saveErr != nil {
			return res, errors.Join(err, saveErr)
		}
	}
	return res, err
}

// Close shuts down the browser.
func (c *Client) Close() error {
	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	c.browser = nil
	return err
}
