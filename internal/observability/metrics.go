package observability

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks counters for one analyzer process.
type Metrics struct {
	// Pagination metrics
	LoadSteps   atomic.Int64
	Navigations atomic.Int64
	NavFailures atomic.Int64

	// Parse metrics
	PostsParsed      atomic.Int64
	FragmentsDropped atomic.Int64
	PostsFiltered    atomic.Int64

	// Interaction metrics
	OverlaysOpened  atomic.Int64
	OverlaysMissing atomic.Int64
	PermalinksRead  atomic.Int64

	// Output metrics
	PostsStored atomic.Int64
	Runs        atomic.Int64
	RunsFailed  atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"postpulse_load_steps_total", "Total scroll steps on activity pages", m.LoadSteps.Load()},
		{"postpulse_navigations_total", "Total page navigations", m.Navigations.Load()},
		{"postpulse_navigation_failures_total", "Total navigations that failed", m.NavFailures.Load()},
		{"postpulse_posts_parsed_total", "Total posts parsed from snapshots", m.PostsParsed.Load()},
		{"postpulse_fragments_dropped_total", "Total post fragments without identifier", m.FragmentsDropped.Load()},
		{"postpulse_posts_filtered_total", "Total posts removed by inclusion filters", m.PostsFiltered.Load()},
		{"postpulse_overlays_opened_total", "Total reactor overlays read", m.OverlaysOpened.Load()},
		{"postpulse_overlays_missing_total", "Total reactor overlays not found", m.OverlaysMissing.Load()},
		{"postpulse_permalinks_read_total", "Total permalink pages read for hashtags", m.PermalinksRead.Load()},
		{"postpulse_posts_stored_total", "Total posts written to storage", m.PostsStored.Load()},
		{"postpulse_runs_total", "Total analyze runs", m.Runs.Load()},
		{"postpulse_runs_failed_total", "Total analyze runs that ended with an error", m.RunsFailed.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"load_steps":        m.LoadSteps.Load(),
		"navigations":       m.Navigations.Load(),
		"nav_failures":      m.NavFailures.Load(),
		"posts_parsed":      m.PostsParsed.Load(),
		"fragments_dropped": m.FragmentsDropped.Load(),
		"posts_filtered":    m.PostsFiltered.Load(),
		"overlays_opened":   m.OverlaysOpened.Load(),
		"overlays_missing":  m.OverlaysMissing.Load(),
		"permalinks_read":   m.PermalinksRead.Load(),
		"posts_stored":      m.PostsStored.Load(),
		"runs":              m.Runs.Load(),
		"runs_failed":       m.RunsFailed.Load(),
	}
}
