package observability

import (
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics(testLogger)
	m.PostsParsed.Add(12)
	m.OverlaysMissing.Add(2)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"# TYPE postpulse_posts_parsed_total counter",
		"postpulse_posts_parsed_total 12",
		"postpulse_overlays_missing_total 2",
		"postpulse_runs_total 0",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics(testLogger)
	m.LoadSteps.Add(3)
	m.PostsStored.Add(7)

	snap := m.Snapshot()
	if snap["load_steps"] != 3 || snap["posts_stored"] != 7 {
		t.Errorf("snapshot = %v", snap)
	}
}
