package enrich

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/IshaanNene/PostPulse/internal/automation/sessiontest"
	"github.com/IshaanNene/PostPulse/internal/config"
	"github.com/IshaanNene/PostPulse/internal/observability"
	"github.com/IshaanNene/PostPulse/internal/parser"
	"github.com/IshaanNene/PostPulse/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	urnA    = "urn:li:activity:7130316800000012345"
	urnB    = "urn:li:activity:7126122496000012345"
	feedURL = "https://www.linkedin.com/in/jane/recent-activity/all/"
)

func scrapeConfig() config.ScrapeConfig {
	cfg := config.DefaultConfig().Scrape
	cfg.OverlayTimeout = 10 * time.Millisecond
	cfg.OverlayWait = 0
	cfg.PermalinkWait = 0
	cfg.NavigationInterval = 0
	return cfg
}

func overlayHTML(names ...string) string {
	var b strings.Builder
	b.WriteString(`<div class="social-details-reactors-modal__content"><ul>`)
	for _, n := range names {
		b.WriteString(`<li class="artdeco-list__item social-details-reactors-tab-body-list-item"><a>`)
		b.WriteString(`<div class="artdeco-entity-lockup__title"><span aria-hidden="true">` + n + `</span></div>`)
		b.WriteString(`</a></li>`)
	}
	b.WriteString(`</ul></div>`)
	return b.String()
}

func feedHTML() string {
	return `<html><body>` +
		`<div class="feed-shared-update-v2" data-urn="` + urnA + `"><li class="social-details-social-counts__reactions"><button class="social-details-social-counts__count-value">3</button></li></div>` +
		`<div class="feed-shared-update-v2" data-urn="` + urnB + `"><li class="social-details-social-counts__reactions"><button class="social-details-social-counts__count-value">1</button></li></div>` +
		`</body></html>`
}

func permalinkHTML(text string) string {
	return `<html><body><div class="feed-shared-update-v2__description"><span>` + text + `</span></div></body></html>`
}

func newFake(t *testing.T) *sessiontest.Fake {
	t.Helper()
	base := config.DefaultConfig().Scrape.BaseURL
	fake := &sessiontest.Fake{
		Feed: []string{feedHTML()},
		Overlays: map[string][]string{
			urnA: {
				overlayHTML("Ada Lovelace"),
				overlayHTML("Ada Lovelace", "Grace Hopper"),
				overlayHTML("Ada Lovelace", "Grace Hopper", "Alan Turing"),
			},
		},
		Pages: map[string]string{
			parser.PermalinkURL(base, urnA): permalinkHTML("Shipping #Go and #go tooling"),
		},
		NavErrors: map[string]error{
			parser.PermalinkURL(base, urnB): &types.PageError{URL: parser.PermalinkURL(base, urnB), Err: context.DeadlineExceeded},
		},
	}
	if err := fake.Navigate(context.Background(), feedURL); err != nil {
		t.Fatal(err)
	}
	return fake
}

func posts() []*types.Post {
	return []*types.Post{types.NewPost(urnA, nil), types.NewPost(urnB, nil)}
}

func TestReactorExtractor(t *testing.T) {
	fake := newFake(t)
	r := NewReactorExtractor(scrapeConfig(), testLogger)

	names, err := r.Extract(context.Background(), fake, urnA)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if diff := cmp.Diff([]string{"Ada Lovelace", "Grace Hopper", "Alan Turing"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	// The overlay is dismissed afterwards.
	if _, err := fake.Find(context.Background(), parser.ReactorsOverlay, 0); !errors.Is(err, types.ErrElementNotFound) {
		t.Error("overlay should be closed after extraction")
	}
}

func TestReactorExtractorOverlayMissing(t *testing.T) {
	fake := newFake(t)
	r := NewReactorExtractor(scrapeConfig(), testLogger)

	_, err := r.Extract(context.Background(), fake, urnB)
	if !errors.Is(err, types.ErrOverlayNotFound) {
		t.Fatalf("expected ErrOverlayNotFound, got %v", err)
	}

	_, err = r.Extract(context.Background(), fake, "urn:li:activity:7000000000000000001")
	if !errors.Is(err, types.ErrOverlayNotFound) {
		t.Fatalf("expected ErrOverlayNotFound for absent control, got %v", err)
	}
}

func TestHashtagExtractor(t *testing.T) {
	fake := newFake(t)
	h := NewHashtagExtractor(scrapeConfig(), testLogger)

	tags, err := h.Extract(context.Background(), fake, urnA)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if diff := cmp.Diff([]string{"go", "go"}, tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}

	_, err = h.Extract(context.Background(), fake, urnB)
	var pe *types.PageError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PageError, got %v", err)
	}
}

func TestHashtagExtractorPacing(t *testing.T) {
	fake := newFake(t)
	cfg := scrapeConfig()
	cfg.NavigationInterval = 30 * time.Millisecond
	h := NewHashtagExtractor(cfg, testLogger)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := h.Extract(context.Background(), fake, urnA); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 55*time.Millisecond {
		t.Errorf("three navigations took %v, want at least two intervals", elapsed)
	}
}

func TestEnricherFill(t *testing.T) {
	fake := newFake(t)
	metrics := observability.NewMetrics(testLogger)
	e := New(scrapeConfig(), testLogger, metrics)

	ps := posts()
	deferred := types.FieldSet{types.FieldHashtags, types.FieldReactors}
	if err := e.Fill(context.Background(), fake, ps, deferred); err != nil {
		t.Fatalf("fill: %v", err)
	}

	if diff := cmp.Diff([]string{"Ada Lovelace", "Grace Hopper", "Alan Turing"}, ps[0].Reactors); diff != "" {
		t.Errorf("reactors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"go", "go"}, ps[0].Hashtags); diff != "" {
		t.Errorf("hashtags mismatch (-want +got):\n%s", diff)
	}

	// Post B: overlay missing and permalink timed out, fields empty but present.
	if !ps[1].Has(types.FieldReactors) || len(ps[1].Reactors) != 0 {
		t.Errorf("post B reactors = %v", ps[1].Reactors)
	}
	if !ps[1].Has(types.FieldHashtags) || len(ps[1].Hashtags) != 0 {
		t.Errorf("post B hashtags = %v", ps[1].Hashtags)
	}

	// Reactors are read on the activity page before any permalink navigation.
	if fake.Navigations[0] != feedURL || len(fake.Navigations) != 3 {
		t.Errorf("navigations = %v", fake.Navigations)
	}

	if metrics.OverlaysOpened.Load() != 1 || metrics.OverlaysMissing.Load() != 1 {
		t.Errorf("overlay metrics = %v", metrics.Snapshot())
	}
	if metrics.PermalinksRead.Load() != 1 || metrics.NavFailures.Load() != 1 {
		t.Errorf("permalink metrics = %v", metrics.Snapshot())
	}
}

func TestEnricherOnlyRequestedFields(t *testing.T) {
	fake := newFake(t)
	e := New(scrapeConfig(), testLogger, nil)

	ps := posts()
	if err := e.Fill(context.Background(), fake, ps, types.FieldSet{types.FieldReactors}); err != nil {
		t.Fatal(err)
	}
	if ps[0].Has(types.FieldHashtags) {
		t.Error("hashtags were not requested")
	}
	if len(fake.Navigations) != 1 {
		t.Errorf("no permalink should be visited, got %v", fake.Navigations)
	}
}

func TestEnricherSessionErrorAborts(t *testing.T) {
	fake := newFake(t)
	fake.NavigateHook = func(ctx context.Context, url string) error {
		return &types.SessionError{Op: "navigate", Err: errors.New("target closed")}
	}
	e := New(scrapeConfig(), testLogger, nil)

	ps := posts()
	err := e.Fill(context.Background(), fake, ps, types.FieldSet{types.FieldReactors, types.FieldHashtags})
	var se *types.SessionError
	if !errors.As(err, &se) {
		t.Fatalf("expected SessionError, got %v", err)
	}
	if len(ps[0].Reactors) != 3 {
		t.Error("reactors filled before the failure must be kept")
	}
	if ps[0].Has(types.FieldHashtags) {
		t.Error("hashtags must stay unset after the session failed")
	}
}

func TestEnricherCancelled(t *testing.T) {
	fake := newFake(t)
	e := New(scrapeConfig(), testLogger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Fill(ctx, fake, posts(), types.FieldSet{types.FieldReactors})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
