package service

import (
	"bytes"
	"errors"

	"github.com/EckhartOSB/feedmbox/internal/modules/feed/domain"
	sharederrors "github.com/EckhartOSB/feedmbox/internal/shared/errors"
	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Parser turns a raw feed document into channel metadata plus items.
// gofeed handles RSS 2.0, Atom 1.0, and RSS 1.0 (RDF) alike.
type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{parser: gofeed.NewParser()}
}

func (p *Parser) Parse(data []byte) (*domain.Channel, []domain.Item, error) {
	feed, err := p.parser.Parse(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
			return nil, nil, oops.Wrap(sharederrors.ErrUnrecognizedFormat)
		}
		return nil, nil, oops.With("context", "parsing feed").Wrap(err)
	}

	channel := &domain.Channel{
		Title: feed.Title,
		Link:  feed.Link,
	}
	if feed.Description != "" {
		channel.Subtitle = &feed.Description
	}
	if feed.Author != nil && feed.Author.Name != "" {
		channel.Author = &feed.Author.Name
	}
	if feed.PublishedParsed != nil {
		channel.Published = feed.PublishedParsed
	} else if feed.UpdatedParsed != nil {
		channel.Published = feed.UpdatedParsed
	}

	items := lo.Map(feed.Items, func(it *gofeed.Item, _ int) domain.Item {
		return toDomainItem(it)
	})
	return channel, items, nil
}

func toDomainItem(it *gofeed.Item) domain.Item {
	var item domain.Item
	if it.GUID != "" {
		item.RawID = &it.GUID
	}
	if it.Link != "" {
		item.Link = &it.Link
	}
	if it.Title != "" {
		item.Title = &it.Title
	}
	if it.Author != nil && it.Author.Name != "" {
		item.Author = &it.Author.Name
	}
	if len(it.Categories) > 0 {
		item.Category = &it.Categories[0]
	}
	if it.PublishedParsed != nil {
		item.Published = it.PublishedParsed
	} else if it.UpdatedParsed != nil {
		item.Published = it.UpdatedParsed
	}

	// Body source priority: full content when the feed supplies it,
	// else the description/summary.
	if it.Content != "" {
		item.BodyHTML = it.Content
	} else {
		item.BodyHTML = it.Description
	}
	return item
}
