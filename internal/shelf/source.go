package shelf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"readingshelf/internal/platform/upstream"
)

const feedAccept = "application/rss+xml, application/atom+xml;q=0.9, application/xml;q=0.8, */*;q=0.5"

// FeedSource fetches and parses the reading-activity feed.
type FeedSource struct {
	url       string
	client    Getter
	extractor *Extractor
}

func NewFeedSource(feedURL string, client Getter, extractor *Extractor) *FeedSource {
	if extractor == nil {
		extractor = NewExtractor("")
	}
	return &FeedSource{url: feedURL, client: client, extractor: extractor}
}

// Fetch returns the shelf built from the feed. On any failure it returns an
// empty shelf and an error wrapping ErrFeedUnavailable.
func (s *FeedSource) Fetch(ctx context.Context) (Shelf, error) {
	resp, err := s.client.Get(ctx, s.url, upstream.WithHeader("Accept", feedAccept))
	if err != nil {
		return Empty(), fmt.Errorf("%w: fetch: %w", ErrFeedUnavailable, err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return Empty(), fmt.Errorf("%w: parse: %w", ErrFeedUnavailable, err)
	}

	return Split(s.extractor.Extract(feed)), nil
}
