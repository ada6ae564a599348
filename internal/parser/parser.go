package parser

import (
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/PostPulse/internal/types"
)

// Batch is the set of posts extracted from one page snapshot.
type Batch struct {
	// Posts are in display order, most recent first.
	Posts []*types.Post

	// Deferred lists requested fields that need browser interaction and are
	// not yet populated on Posts.
	Deferred types.FieldSet

	// Dropped counts post fragments without a usable identifier.
	Dropped int
}

// Parser turns activity page snapshots into post records.
type Parser struct {
	logger *slog.Logger
}

// New creates a new post parser.
func New(logger *slog.Logger) *Parser {
	return &Parser{
		logger: logger.With("component", "post_parser"),
	}
}

// Parse extracts one record per post fragment in html, populating every
// requested static field.
func (p *Parser) Parse(html string, fields types.FieldSet) (*Batch, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &types.ParseError{Source: "page snapshot", Err: err}
	}

	batch := &Batch{Deferred: fields.Interactive()}
	showTime := fields.Has(types.FieldTime)

	PostSpec().FindAll(doc.Selection).Each(func(_ int, fragment *goquery.Selection) {
		urn, err := ExtractURN(fragment)
		if err != nil {
			batch.Dropped++
			return
		}

		post := types.NewPost(urn, nil)
		if t, err := DecodeTime(urn); err == nil {
			post.SetTime(t, showTime)
		} else {
			p.logger.Debug("undecodable identifier", "urn", urn, "error", err)
			post.SetTime(time.Time{}, showTime)
		}

		for _, f := range fields {
			if !f.IsCount() {
				continue
			}
			val, err := Extract(fragment, f)
			if err != nil {
				// Static fields never fail; keep the post regardless.
				p.logger.Warn("field extraction failed", "urn", urn, "field", f, "error", err)
				continue
			}
			post.SetCount(f, val.(int))
		}

		batch.Posts = append(batch.Posts, post)
	})

	if batch.Dropped > 0 {
		p.logger.Debug("fragments without identifier dropped", "count", batch.Dropped)
	}
	p.logger.Debug("page parsed", "posts", len(batch.Posts), "deferred", batch.Deferred.String())

	return batch, nil
}

// OldestTime returns the publish time of the last post in html whose
// identifier decodes. ok is false when the snapshot has no such post.
func (p *Parser) OldestTime(html string) (oldest time.Time, ok bool, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return time.Time{}, false, &types.ParseError{Source: "page snapshot", Err: err}
	}

	PostSpec().FindAll(doc.Selection).Each(func(_ int, fragment *goquery.Selection) {
		urn, err := ExtractURN(fragment)
		if err != nil {
			return
		}
		t, err := DecodeTime(urn)
		if err != nil {
			return
		}
		oldest, ok = t, true
	})

	return oldest, ok, nil
}
