package service

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/EckhartOSB/feedmbox/internal/modules/subscription/domain"
	"github.com/samber/oops"
)

// Service reads OPML subscription lists.
type Service struct{}

func New() *Service {
	return &Service{}
}

type outline struct {
	Type     string    `xml:"type,attr"`
	Text     string    `xml:"text,attr"`
	XMLURL   string    `xml:"xmlUrl,attr"`
	Outlines []outline `xml:"outline"`
}

type opml struct {
	Body struct {
		Outlines []outline `xml:"outline"`
	} `xml:"body"`
}

// Parse returns the rss/atom subscriptions declared in an OPML
// document, in document order. Outlines nest arbitrarily; anything
// without an xmlUrl or with another type is skipped.
func (s *Service) Parse(r io.Reader) ([]domain.Feed, error) {
	var doc opml
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, oops.With("context", "parsing OPML").Wrap(err)
	}

	var feeds []domain.Feed
	var walk func(outlines []outline)
	walk = func(outlines []outline) {
		for _, o := range outlines {
			t := strings.ToLower(o.Type)
			if (t == "rss" || t == "atom") && o.XMLURL != "" {
				feeds = append(feeds, domain.Feed{Title: o.Text, URL: o.XMLURL})
			}
			walk(o.Outlines)
		}
	}
	walk(doc.Body.Outlines)

	return feeds, nil
}
