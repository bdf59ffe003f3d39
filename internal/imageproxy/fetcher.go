package imageproxy

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"readingshelf/internal/platform/upstream"
)

const (
	DefaultReferer = "https://www.goodreads.com/"
	imageAccept    = "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8"
)

var ErrHostNotAllowed = errors.New("image host not allowed")

// Fetcher downloads images from allow-listed hosts only.
type Fetcher struct {
	client         Getter
	allow          *AllowList
	defaultReferer string
	maxBytes       int64
}

func NewFetcher(client Getter, allow *AllowList, defaultReferer string, maxBytes int64) *Fetcher {
	if allow == nil {
		allow = NewAllowList(DefaultAllowedHosts...)
	}
	if defaultReferer == "" {
		defaultReferer = DefaultReferer
	}
	return &Fetcher{
		client:         client,
		allow:          allow,
		defaultReferer: defaultReferer,
		maxBytes:       maxBytes,
	}
}

// Fetch downloads rawURL with browser-like headers and sniffs the body.
// Disallowed hosts fail with ErrHostNotAllowed before any network I/O, and
// so does any redirect that leaves the allowlist.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, referer string) (Image, error) {
	rawURL = absoluteURL(rawURL)
	if !f.allow.Allows(rawURL) {
		host, _ := hostOf(rawURL)
		return Image{}, fmt.Errorf("%w: %q", ErrHostNotAllowed, host)
	}

	resp, err := f.client.Get(ctx, rawURL,
		upstream.WithReferer(f.referer(referer)),
		upstream.WithHeader("Accept", imageAccept),
		upstream.WithHeader("Sec-Fetch-Site", "cross-site"),
		upstream.WithHeader("Sec-Fetch-Mode", "no-cors"),
		upstream.WithHeader("Sec-Fetch-Dest", "image"),
		// The fallback chain is the retry.
		upstream.WithRetries(0),
		upstream.WithMaxBytes(f.maxBytes),
		upstream.WithRedirectCheck(f.checkRedirect),
	)
	if err != nil {
		return Image{}, err
	}

	img, err := Sniff(resp.Body, resp.ContentType())
	if err != nil {
		return Image{}, fmt.Errorf("%s: %w", rawURL, err)
	}
	img.URL = rawURL
	return img, nil
}

func (f *Fetcher) checkRedirect(target *url.URL) error {
	if !f.allow.Allows(target.String()) {
		return fmt.Errorf("%w: redirect to %q", ErrHostNotAllowed, target.Hostname())
	}
	return nil
}

// referer uses the caller's page when it is an absolute http(s) URL.
func (f *Fetcher) referer(page string) string {
	if page == "" {
		return f.defaultReferer
	}
	u, err := url.Parse(page)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return f.defaultReferer
	}
	return page
}
