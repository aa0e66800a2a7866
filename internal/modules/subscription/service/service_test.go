package service

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<opml version="1.0">
  <head><title>subscriptions</title></head>
  <body>
    <outline text="News">
      <outline type="rss" text="Example" xmlUrl="http://example.com/rss"/>
      <outline type="atom" text="Other" xmlUrl="http://other.example/atom.xml"/>
    </outline>
    <outline type="RSS" text="Upper" xmlUrl="http://upper.example/feed"/>
    <outline type="link" text="Not a feed" url="http://example.com"/>
    <outline type="rss" text="No URL"/>
  </body>
</opml>`

	feeds, err := New().Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []struct{ title, url string }{
		{"Example", "http://example.com/rss"},
		{"Other", "http://other.example/atom.xml"},
		{"Upper", "http://upper.example/feed"},
	}
	if len(feeds) != len(want) {
		t.Fatalf("got %d feeds, want %d: %+v", len(feeds), len(want), feeds)
	}
	for i, w := range want {
		if feeds[i].Title != w.title || feeds[i].URL != w.url {
			t.Errorf("feed %d: got %+v, want %+v", i, feeds[i], w)
		}
	}
}

func TestParseEmptyBody(t *testing.T) {
	feeds, err := New().Parse(strings.NewReader(`<opml version="1.0"><body/></opml>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(feeds) != 0 {
		t.Errorf("got %d feeds, want none", len(feeds))
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := New().Parse(strings.NewReader("not xml at all")); err == nil {
		t.Error("malformed document parsed without error")
	}
}
