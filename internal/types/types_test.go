package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseField(t *testing.T) {
	tests := []struct {
		name string
		want Field
	}{
		{"urn", FieldURN},
		{"Time", FieldTime},
		{" REACTIONS ", FieldReactions},
		{"hashtags", FieldHashtags},
	}
	for _, tt := range tests {
		got, err := ParseField(tt.name)
		if err != nil {
			t.Fatalf("ParseField(%q): %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("ParseField(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	_, err := ParseField("likes")
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	var ufe *UnknownFieldError
	if !errors.As(err, &ufe) || ufe.Name != "likes" {
		t.Errorf("expected UnknownFieldError naming likes, got %v", err)
	}
}

func TestFieldClassification(t *testing.T) {
	for _, f := range AllFields {
		if f.IsList() != f.Interactive() {
			t.Errorf("%s: list=%v interactive=%v", f, f.IsList(), f.Interactive())
		}
		if f.IsCount() && f.IsList() {
			t.Errorf("%s classified as both count and list", f)
		}
	}
	if Field(99).Valid() {
		t.Error("Field(99) must not be valid")
	}
	if Field(99).String() != "field(99)" {
		t.Errorf("unexpected name %q", Field(99).String())
	}
}

func TestParseFieldSet(t *testing.T) {
	fs, err := ParseFieldSet([]string{"reactions", "time", "reactions", "reactors"})
	if err != nil {
		t.Fatalf("ParseFieldSet: %v", err)
	}
	want := FieldSet{FieldURN, FieldReactions, FieldTime, FieldReactors}
	if diff := cmp.Diff(want, fs); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(FieldSet{FieldReactors}, fs.Interactive()); diff != "" {
		t.Errorf("interactive mismatch (-want +got):\n%s", diff)
	}
	if fs.String() != "urn,reactions,time,reactors" {
		t.Errorf("String() = %q", fs.String())
	}

	def, err := ParseFieldSet(nil)
	if err != nil {
		t.Fatalf("ParseFieldSet(nil): %v", err)
	}
	if diff := cmp.Diff(DefaultFieldNames, def.Names()); diff != "" {
		t.Errorf("default mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseFieldSet([]string{"time", "shares"}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
}

func TestPostSetters(t *testing.T) {
	p := NewPost("urn:li:activity:1", nil)
	p.SetCount(FieldReactions, -4)
	p.SetCount(FieldURN, 7) // ignored
	p.SetList(FieldHashtags, nil)
	p.SetTime(time.Unix(1700000000, 0), false)

	if p.Reactions != 0 {
		t.Errorf("negative count must clamp to 0, got %d", p.Reactions)
	}
	if diff := cmp.Diff(FieldSet{FieldURN, FieldReactions, FieldHashtags}, p.Fields()); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if p.Hashtags == nil {
		t.Error("SetList(nil) must store an empty list")
	}
	if p.Has(FieldTime) {
		t.Error("hidden time must not be marked populated")
	}
	if p.Time.IsZero() {
		t.Error("hidden time must still be stored")
	}
}

func TestPostJSON(t *testing.T) {
	ts := time.Date(2023, 11, 14, 22, 13, 20, 0, time.Local)
	p := NewPost("urn:li:activity:7130316800000012345", nil)
	p.SetTime(ts, true)
	p.SetCount(FieldReactions, 42)
	p.SetList(FieldReactors, []string{"Ada Lovelace", "Grace Hopper"})

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"urn":"urn:li:activity:7130316800000012345","time":"2023-11-14 22:13:20","reactions":42,"reactors":["Ada Lovelace","Grace Hopper"]}`
	if string(data) != want {
		t.Errorf("marshal = %s\nwant      %s", data, want)
	}

	var back Post
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(p.ToMap(), back.ToMap()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if !back.Time.Equal(ts) {
		t.Errorf("time = %v, want %v", back.Time, ts)
	}
}

func TestPostFromMapErrors(t *testing.T) {
	if _, err := PostFromMap(map[string]any{"reactions": 3}); !errors.Is(err, ErrUnresolvableFragment) {
		t.Errorf("expected ErrUnresolvableFragment, got %v", err)
	}
	if _, err := PostFromMap(map[string]any{"urn": "x", "likes": 3}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
	if _, err := PostFromMap(map[string]any{"urn": "x", "comments": "many"}); err == nil {
		t.Error("expected error for non-numeric count")
	}
}

func TestPostRow(t *testing.T) {
	columns := FieldSet{FieldURN, FieldTime, FieldComments, FieldHashtags, FieldReactors}

	p := NewPost("urn:li:activity:9", nil)
	p.SetTime(time.Date(2024, 1, 1, 9, 30, 0, 0, time.Local), true)
	p.SetCount(FieldComments, 3)
	p.SetList(FieldHashtags, []string{"go", "rust"})

	row := p.ToRow(columns)
	want := []string{"urn:li:activity:9", "2024-01-01 09:30:00", "3", `["go","rust"]`, ""}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}

	back, err := PostFromRow(columns.Names(), row)
	if err != nil {
		t.Fatalf("PostFromRow: %v", err)
	}
	if back.Comments != 3 || back.URN != p.URN {
		t.Errorf("unexpected post %+v", back)
	}
	if diff := cmp.Diff([]string{"go", "rust"}, back.Hashtags); diff != "" {
		t.Errorf("hashtags mismatch (-want +got):\n%s", diff)
	}
	if !back.Has(FieldReactors) || len(back.Reactors) != 0 {
		t.Errorf("empty list column must restore as empty list, got %v", back.Reactors)
	}

	if _, err := PostFromRow([]string{"urn"}, []string{"a", "b"}); err == nil {
		t.Error("expected column count error")
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&SessionError{Op: "navigate", Err: errors.New("target closed")}, true},
		{&VerificationError{URL: "https://x/checkpoint/", Headless: true, Err: ErrVerificationRequired}, true},
		{&UnknownFieldError{Name: "likes"}, true},
		{&PageError{URL: "https://x/p/1", Err: errors.New("timeout")}, false},
		{ErrOverlayNotFound, false},
	}
	for _, tt := range tests {
		if got := IsFatal(tt.err); got != tt.want {
			t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
