package shelf

import (
	"context"

	"readingshelf/internal/platform/upstream"
)

//go:generate mockgen -source=ports.go -destination=mock_ports_test.go -package=shelf

// Getter is the part of the upstream client the feed source needs.
type Getter interface {
	Get(ctx context.Context, url string, opts ...upstream.RequestOption) (*upstream.Response, error)
}

// Source produces a fresh shelf from the upstream feed.
type Source interface {
	Fetch(ctx context.Context) (Shelf, error)
}

// Reader serves the current shelf.
type Reader interface {
	Shelf(ctx context.Context) (Shelf, error)
}
