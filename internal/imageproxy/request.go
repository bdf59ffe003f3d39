package imageproxy

import (
	"net/url"
	"strconv"
	"strings"
)

// Request is one cover lookup. URL is required.
type Request struct {
	URL      string
	Original string
	Title    string
	Page     string
	// Retry marks a follow-up call from a legacy client that already tried
	// the original URL.
	Retry bool
}

// RequestFromQuery reads url, original, title, page and retry. The legacy
// src parameter is accepted when url is absent.
func RequestFromQuery(q url.Values) Request {
	target := strings.TrimSpace(q.Get("url"))
	if target == "" {
		target = strings.TrimSpace(q.Get("src"))
	}
	retry, _ := strconv.ParseBool(q.Get("retry"))
	return Request{
		URL:      target,
		Original: strings.TrimSpace(q.Get("original")),
		Title:    strings.TrimSpace(q.Get("title")),
		Page:     strings.TrimSpace(q.Get("page")),
		Retry:    retry,
	}
}
