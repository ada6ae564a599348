package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/IshaanNene/PostPulse/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func post(urn string, t time.Time) *types.Post {
	p := types.NewPost(urn, nil)
	p.SetTime(t, true)
	return p
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func urns(posts []*types.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.URN
	}
	return out
}

func TestRequiredURNMiddleware(t *testing.T) {
	m := &RequiredURNMiddleware{}

	result, err := m.Process(post("urn:1", day(2024, 1, 1)))
	if err != nil || result == nil {
		t.Error("post with identifier should pass")
	}

	result, _ = m.Process(types.NewPost("  ", nil))
	if result != nil {
		t.Error("post without identifier should be dropped (nil)")
	}
}

func TestDedupMiddleware(t *testing.T) {
	m := NewDedupMiddleware()

	first := post("urn:1", day(2024, 1, 2))
	if result, _ := m.Process(first); result != first {
		t.Fatal("first occurrence should pass")
	}
	if result, _ := m.Process(post("urn:1", day(2024, 1, 2))); result != nil {
		t.Error("duplicate should be dropped")
	}
	if result, _ := m.Process(post("urn:2", day(2024, 1, 1))); result == nil {
		t.Error("distinct identifier should pass")
	}
}

func TestDateRangeMiddleware(t *testing.T) {
	since := day(2024, 1, 1)
	until := day(2024, 2, 1)

	tests := []struct {
		name  string
		since time.Time
		until time.Time
		at    time.Time
		keep  bool
	}{
		{"inside", since, until, day(2024, 1, 15), true},
		{"since is inclusive", since, until, since, true},
		{"until is exclusive", since, until, until, false},
		{"before since", since, until, day(2023, 12, 31), false},
		{"open upper bound", since, time.Time{}, day(2030, 1, 1), true},
		{"open lower bound", time.Time{}, until, day(2001, 1, 1), true},
		{"unknown time with bound", since, time.Time{}, time.Time{}, false},
		{"unknown time without bounds", time.Time{}, time.Time{}, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewDateRangeMiddleware(tt.since, tt.until)
			result, err := m.Process(post("urn:x", tt.at))
			if err != nil {
				t.Fatal(err)
			}
			if (result != nil) != tt.keep {
				t.Errorf("kept = %v, want %v", result != nil, tt.keep)
			}
		})
	}
}

func TestInclusionPipeline(t *testing.T) {
	p := NewInclusionPipeline(New(testLogger), day(2024, 1, 1), time.Time{})
	if p.Len() != 3 {
		t.Fatalf("expected 3 middleware, got %d", p.Len())
	}

	in := []*types.Post{
		post("urn:c", day(2024, 3, 1)),
		post("urn:b", day(2024, 2, 1)),
		post("urn:c", day(2024, 3, 1)),
		post("urn:a", day(2023, 6, 1)),
		types.NewPost("", nil),
	}

	out, err := p.Run(in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff([]string{"urn:c", "urn:b"}, urns(out)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

type failingMiddleware struct{}

func (failingMiddleware) Name() string { return "failing" }

func (failingMiddleware) Process(*types.Post) (*types.Post, error) {
	return nil, errors.New("boom")
}

func TestPipelineError(t *testing.T) {
	p := New(testLogger)
	p.Use(failingMiddleware{})

	_, err := p.Run([]*types.Post{post("urn:1", day(2024, 1, 1))})
	var pe *types.PipelineError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PipelineError, got %v", err)
	}
	if pe.Stage != "failing" || pe.URN != "urn:1" {
		t.Errorf("error = %+v", pe)
	}
}
