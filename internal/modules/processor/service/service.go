package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	feedDomain "github.com/EckhartOSB/feedmbox/internal/modules/feed/domain"
	ledgerRepo "github.com/EckhartOSB/feedmbox/internal/modules/ledger/repository"
	messageDomain "github.com/EckhartOSB/feedmbox/internal/modules/message/domain"
	subscriptionDomain "github.com/EckhartOSB/feedmbox/internal/modules/subscription/domain"
	"github.com/EckhartOSB/feedmbox/internal/shared/config"
	sharederrors "github.com/EckhartOSB/feedmbox/internal/shared/errors"
	"github.com/samber/oops"
)

// Fetcher retrieves a raw feed document.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]byte, error)
}

// Parser turns a raw document into channel metadata and items.
type Parser interface {
	Parse(data []byte) (*feedDomain.Channel, []feedDomain.Item, error)
}

// Renderer degrades feed HTML into plain text.
type Renderer interface {
	HTMLToText(html string) string
}

// Emitter serializes one message onto the output stream.
type Emitter interface {
	Emit(msg *messageDomain.Message) error
}

// Service walks the subscription list once, emitting every item the
// ledger has not seen before. Sequential on purpose: one feed at a
// time, one item at a time.
type Service struct {
	cfg      *config.Config
	ledger   ledgerRepo.Repository
	fetcher  Fetcher
	parser   Parser
	renderer Renderer
	emitter  Emitter
	now      func() time.Time
}

func New(cfg *config.Config, ledger ledgerRepo.Repository, fetcher Fetcher, parser Parser, renderer Renderer, emitter Emitter) *Service {
	return &Service{
		cfg:      cfg,
		ledger:   ledger,
		fetcher:  fetcher,
		parser:   parser,
		renderer: renderer,
		emitter:  emitter,
		now:      time.Now,
	}
}

// Run polls every subscription once. A failure inside one feed is
// logged and the run moves on; only cancellation and ledger lock
// exhaustion abort the whole run.
func (s *Service) Run(ctx context.Context, feeds []subscriptionDomain.Feed) error {
	for _, feed := range feeds {
		if err := ctx.Err(); err != nil {
			return err
		}
		slog.Info("polling", "feed", feed.Title, "url", feed.URL)

		err := s.processFeed(ctx, feed)
		switch {
		case err == nil:
		case errors.Is(err, sharederrors.ErrLockTimeout):
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			slog.Error("feed failed", "url", feed.URL, "error", err)
		}
	}
	return nil
}

func (s *Service) processFeed(ctx context.Context, feed subscriptionDomain.Feed) error {
	data, err := s.fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		return oops.With("context", "fetching feed").Wrap(err)
	}

	channel, items, err := s.parser.Parse(data)
	if err != nil {
		return oops.With("context", "parsing feed").Wrap(err)
	}
	slog.Debug("feed parsed", "url", feed.URL, "items", len(items))

	count := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		emitted, err := s.processItem(ctx, feed.URL, channel, item)
		if err != nil {
			return err
		}
		if emitted {
			count++
		}
	}
	if count > 0 {
		slog.Info("new items", "url", feed.URL, "count", count)
	}
	return nil
}

func (s *Service) processItem(ctx context.Context, feedURL string, channel *feedDomain.Channel, item feedDomain.Item) (bool, error) {
	guid := itemGUID(feedURL, item)

	seen, err := s.ledger.Contains(ctx, guid)
	if err != nil {
		return false, err
	}
	if seen {
		slog.Debug("already seen", "guid", guid)
		return false, nil
	}

	// Record before emitting: a crash between the two loses at most
	// one item, and never emits one twice. The table's uniqueness
	// constraint covers the race with an overlapping run.
	if err := s.ledger.Insert(ctx, guid); err != nil {
		if errors.Is(err, sharederrors.ErrDuplicateGUID) {
			slog.Debug("already recorded by another run", "guid", guid)
			return false, nil
		}
		return false, err
	}
	slog.Debug("new item", "guid", guid)

	if err := s.emitter.Emit(s.buildMessage(feedURL, channel, item)); err != nil {
		return false, err
	}
	return true, nil
}

// itemGUID derives the dedup key: the feed URL plus the item's own id,
// falling back to its link. Items with neither collapse onto one key
// per feed, so at most one of them is ever emitted.
func itemGUID(feedURL string, item feedDomain.Item) string {
	switch {
	case item.RawID != nil:
		return feedURL + "/" + *item.RawID
	case item.Link != nil:
		return feedURL + "/" + *item.Link
	default:
		return feedURL + "/"
	}
}

func (s *Service) buildMessage(feedURL string, channel *feedDomain.Channel, item feedDomain.Item) *messageDomain.Message {
	date := s.now()
	if item.Published != nil {
		date = *item.Published
	} else if channel.Published != nil {
		date = *channel.Published
	}

	msg := &messageDomain.Message{
		To:              s.cfg.To,
		Subject:         item.Title,
		Date:            date,
		ListID:          fmt.Sprintf("%s <%s>", channel.Title, feedURL),
		ContentLocation: channel.Link,
		Subtitle:        channel.Subtitle,
		Category:        item.Category,
		Link:            item.Link,
		Body:            s.renderer.HTMLToText(item.BodyHTML),
	}

	if channel.Title != "" {
		from := fmt.Sprintf("%s <feed@%s>", channel.Title, feedHost(feedURL))
		msg.From = &from
	}
	if item.Author != nil {
		msg.Author = item.Author
	} else {
		msg.Author = channel.Author
	}
	return msg
}

func feedHost(feedURL string) string {
	if u, err := url.Parse(feedURL); err == nil && u.Host != "" {
		return u.Host
	}
	return "unknown"
}
