package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/PostPulse/internal/analyzer"
	"github.com/IshaanNene/PostPulse/internal/config"
	"github.com/IshaanNene/PostPulse/internal/types"
	"github.com/IshaanNene/PostPulse/pkg/postpulse"
)

var (
	user       string
	since      string
	until      string
	fields     string
	headless   bool
	reactors   bool
	hashtags   bool
	outputPath string
	outputType string
	maxScrolls int
	topN       int
)

// analyzeCmd creates the "analyze" subcommand.
func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [user]",
		Short: "Analyze a profile's posts",
		Long: `Sign in, load the profile's activity feed and record engagement for each post.
The user may be given as an argument, with --user, or through POSTPULSE_SCRAPE_USER.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "profile identifier as it appears in /in/<user>/")
	cmd.Flags().StringVar(&since, "since", "", "earliest publish date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "latest publish date, exclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&fields, "fields", "", "comma-separated fields: urn,time,impressions,reactions,comments,reactors,hashtags")
	cmd.Flags().BoolVar(&headless, "headless", true, "run the browser without a window")
	cmd.Flags().BoolVar(&reactors, "reactors", false, "collect reactor names")
	cmd.Flags().BoolVar(&hashtags, "hashtags", false, "collect hashtags")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output directory")
	cmd.Flags().StringVarP(&outputType, "format", "f", "", "output format: csv, json, jsonl, mongodb, or several joined by commas")
	cmd.Flags().IntVar(&maxScrolls, "max-scrolls", -1, "maximum feed load steps (0 = unlimited, -1 = use config)")
	cmd.Flags().IntVarP(&topN, "top", "n", 0, "entries shown per top list (0 = use config)")

	return cmd
}

// runAnalyze executes the analyze command.
func runAnalyze(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	applyCLIOverrides(cmd, cfg, args)

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Scrape.User == "" {
		return errors.New("no user given: pass it as an argument, with --user, or set POSTPULSE_SCRAPE_USER")
	}

	client := postpulse.New(postpulse.WithConfig(cfg))
	defer client.Close()

	if cfg.Metrics.Enabled {
		if err := client.Metrics().StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting analysis",
		"user", cfg.Scrape.User,
		"since", cfg.Scrape.Since,
		"until", cfg.Scrape.Until,
		"headless", cfg.Browser.Headless,
		"output", cfg.Storage.OutputPath,
		"format", cfg.Storage.Type,
	)

	res, err := client.Run(ctx, cfg.Scrape.User)
	if res == nil {
		if errors.Is(err, types.ErrVerificationRequired) {
			fmt.Fprintln(os.Stderr, "\nLogin needs a verification step. Re-run with --headless=false and complete it in the browser window.")
		}
		return err
	}

	printResult(res, cfg)
	if err != nil {
		logger.Error("analysis ended early, partial results were saved", "error", err)
		return err
	}
	return nil
}

func printResult(res *analyzer.Result, cfg *config.Config) {
	elapsed := res.Finished.Sub(res.Started).Round(time.Millisecond)
	totals := res.Totals()

	status := "complete"
	if res.Partial {
		status = "partial"
	}
	fmt.Printf("\nAnalysis of %s %s in %s\n", res.User, status, elapsed)
	fmt.Printf("   Load steps: %d (reached end: %v, stopped at date: %v)\n",
		res.Outcome.Steps, res.Outcome.AtBottom, res.Outcome.Stopped)
	fmt.Printf("   Output:     %s (%s)\n\n", cfg.Storage.OutputPath, cfg.Storage.Type)

	t := newTable()
	t.AppendHeader(table.Row{"Posts", "Impressions", "Reactions", "Comments", "Dropped"})
	t.AppendRow(table.Row{totals.Posts, totals.Impressions, totals.Reactions, totals.Comments, res.Dropped})
	t.Render()

	for _, f := range []types.Field{types.FieldReactors, types.FieldHashtags} {
		if !res.Fields.Has(f) {
			continue
		}
		counts, err := res.Top(f, cfg.Scrape.TopN)
		if err != nil {
			continue
		}
		renderTop(f, counts)
	}
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cmd *cobra.Command, cfg *config.Config, args []string) {
	if len(args) > 0 {
		cfg.Scrape.User = args[0]
	}
	if user != "" {
		cfg.Scrape.User = user
	}
	if since != "" {
		cfg.Scrape.Since = since
	}
	if until != "" {
		cfg.Scrape.Until = until
	}
	if fields != "" {
		var names []string
		for _, f := range strings.Split(fields, ",") {
			if f = strings.TrimSpace(f); f != "" {
				names = append(names, f)
			}
		}
		cfg.Scrape.Fields = names
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if reactors {
		cfg.Scrape.IncludeReactors = true
	}
	if hashtags {
		cfg.Scrape.IncludeHashtags = true
	}
	if outputPath != "" {
		cfg.Storage.OutputPath = outputPath
	}
	if outputType != "" {
		cfg.Storage.Type = strings.ToLower(outputType)
	}
	if maxScrolls >= 0 {
		cfg.Scrape.MaxScrolls = maxScrolls
	}
	if topN > 0 {
		cfg.Scrape.TopN = topN
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
}
