package service

import (
	"errors"
	"testing"
	"time"

	sharederrors "github.com/EckhartOSB/feedmbox/internal/shared/errors"
	"github.com/gorilla/feeds"
)

func fixtureFeed(ts time.Time) *feeds.Feed {
	return &feeds.Feed{
		Title:       "Example Feed",
		Link:        &feeds.Link{Href: "http://example.com"},
		Description: "All the examples",
		Author:      &feeds.Author{Name: "Ann Author"},
		Created:     ts,
		Items: []*feeds.Item{
			{
				Id:          "tag:example.com,2026:1",
				Title:       "First post",
				Link:        &feeds.Link{Href: "http://example.com/1"},
				Description: "<p>summary one</p>",
				Content:     "<p>full content one</p>",
				Created:     ts,
			},
			{
				Title:       "Second post",
				Link:        &feeds.Link{Href: "http://example.com/2"},
				Description: "<p>summary two</p>",
				Created:     ts.Add(time.Hour),
			},
		},
	}
}

func TestParseRSS(t *testing.T) {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	doc, err := fixtureFeed(ts).ToRss()
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}

	channel, items, err := NewParser().Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if channel.Title != "Example Feed" {
		t.Errorf("channel title: got %q", channel.Title)
	}
	if channel.Link != "http://example.com" {
		t.Errorf("channel link: got %q", channel.Link)
	}
	if channel.Subtitle == nil || *channel.Subtitle != "All the examples" {
		t.Errorf("channel subtitle: got %v", channel.Subtitle)
	}

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	first := items[0]
	if first.RawID == nil || *first.RawID != "tag:example.com,2026:1" {
		t.Errorf("first item id: got %v", first.RawID)
	}
	if first.Link == nil || *first.Link != "http://example.com/1" {
		t.Errorf("first item link: got %v", first.Link)
	}
	if first.BodyHTML != "<p>full content one</p>" {
		t.Errorf("content should win over description, got %q", first.BodyHTML)
	}
	if first.Published == nil || !first.Published.Equal(ts) {
		t.Errorf("first item date: got %v, want %v", first.Published, ts)
	}

	second := items[1]
	if second.BodyHTML != "<p>summary two</p>" {
		t.Errorf("description fallback: got %q", second.BodyHTML)
	}
}

func TestParseAtom(t *testing.T) {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	doc, err := fixtureFeed(ts).ToAtom()
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}

	channel, items, err := NewParser().Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if channel.Title != "Example Feed" {
		t.Errorf("channel title: got %q", channel.Title)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].BodyHTML != "<p>full content one</p>" {
		t.Errorf("atom content: got %q", items[0].BodyHTML)
	}
}

func TestParseRDF(t *testing.T) {
	doc := `<?xml version="1.0"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns="http://purl.org/rss/1.0/"
         xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel rdf:about="http://old.example/">
    <title>Old School</title>
    <link>http://old.example/</link>
    <description>An RSS 1.0 feed</description>
  </channel>
  <item rdf:about="http://old.example/1">
    <title>Ancient news</title>
    <link>http://old.example/1</link>
    <description>still relevant</description>
    <dc:date>2026-08-01T12:00:00Z</dc:date>
  </item>
</rdf:RDF>`

	channel, items, err := NewParser().Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if channel.Title != "Old School" {
		t.Errorf("channel title: got %q", channel.Title)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Link == nil || *items[0].Link != "http://old.example/1" {
		t.Errorf("item link: got %v", items[0].Link)
	}
}

func TestParseNotAFeed(t *testing.T) {
	_, _, err := NewParser().Parse([]byte("<html><body>not a feed</body></html>"))
	if !errors.Is(err, sharederrors.ErrUnrecognizedFormat) {
		t.Errorf("got %v, want ErrUnrecognizedFormat", err)
	}
}

func TestParseMissingDates(t *testing.T) {
	doc := `<rss version="2.0"><channel>
  <title>No Dates</title>
  <link>http://nodates.example/</link>
  <description>d</description>
  <item><title>one</title><link>http://nodates.example/1</link><description>b</description></item>
</channel></rss>`

	channel, items, err := NewParser().Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if channel.Published != nil {
		t.Errorf("channel date: got %v, want nil", channel.Published)
	}
	if items[0].Published != nil {
		t.Errorf("item date: got %v, want nil", items[0].Published)
	}
}
