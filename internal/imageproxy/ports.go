package imageproxy

import (
	"context"

	"readingshelf/internal/platform/upstream"
)

//go:generate mockgen -source=ports.go -destination=mock_ports_test.go -package=imageproxy

// Getter is the part of the upstream client the fetcher needs.
type Getter interface {
	Get(ctx context.Context, url string, opts ...upstream.RequestOption) (*upstream.Response, error)
}

// ImageFetcher downloads and validates one image.
type ImageFetcher interface {
	Fetch(ctx context.Context, url, referer string) (Image, error)
}

// Resolver runs the cover fallback chain.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (Result, error)
}
