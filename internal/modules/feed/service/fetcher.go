package service

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/samber/oops"
)

// Fetcher retrieves raw feed documents over HTTP. One attempt per
// feed per run; the caller decides when to poll again.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, oops.With("feed_url", feedURL).Wrap(err)
	}
	req.Header.Set("User-Agent", "feedmbox/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, oops.With("feed_url", feedURL, "context", "fetching feed").Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, oops.With("feed_url", feedURL).Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, oops.With("feed_url", feedURL, "context", "reading feed body").Wrap(err)
	}
	return body, nil
}
