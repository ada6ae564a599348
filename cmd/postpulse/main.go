package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/PostPulse/internal/config"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "postpulse",
		Short: "PostPulse: engagement analytics for a profile's posts",
		Long: `PostPulse signs in to LinkedIn with a real browser, walks a profile's
activity feed and records per-post engagement.

Features:
  • Impressions, reactions and comments per post
  • Publish time decoded from the post identifier
  • Date-range filtering with early stop on the feed
  • Reactor names and hashtags with top-N ranking
  • CSV, JSON, JSONL and MongoDB output
  • Run counters endpoint`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(topCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("PostPulse %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			t := newTable()
			t.AppendHeader(table.Row{"Section", "Setting", "Value"})
			t.AppendRows([]table.Row{
				{"browser", "headless", cfg.Browser.Headless},
				{"browser", "window_size", cfg.Browser.WindowSize},
				{"browser", "navigation_timeout", cfg.Browser.NavigationTimeout},
				{"login", "url", cfg.Login.URL},
				{"login", "username", cfg.Login.Username},
				{"login", "password", mask(cfg.Login.Password)},
				{"login", "verification_timeout", cfg.Login.VerificationTimeout},
				{"scrape", "user", cfg.Scrape.User},
				{"scrape", "since", cfg.Scrape.Since},
				{"scrape", "until", cfg.Scrape.Until},
				{"scrape", "fields", strings.Join(cfg.Scrape.Fields, ",")},
				{"scrape", "include_reactors", cfg.Scrape.IncludeReactors},
				{"scrape", "include_hashtags", cfg.Scrape.IncludeHashtags},
				{"scrape", "settle_wait", cfg.Scrape.SettleWait},
				{"scrape", "max_scrolls", cfg.Scrape.MaxScrolls},
				{"scrape", "top_n", cfg.Scrape.TopN},
				{"storage", "type", cfg.Storage.Type},
				{"storage", "output_path", cfg.Storage.OutputPath},
				{"metrics", "enabled", cfg.Metrics.Enabled},
				{"metrics", "port", cfg.Metrics.Port},
			})
			t.Render()
			return nil
		},
	}
}

// setupLogger creates a structured logger.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return slog.New(handler)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
