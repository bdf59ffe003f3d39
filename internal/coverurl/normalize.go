// Package coverurl rewrites book-cover URLs so they ask the content host for
// its largest rendition.
package coverurl

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/purell"
)

const maxPasses = 8

var (
	sizeFolder = regexp.MustCompile(`/\d+x\d+/`)

	// ._SY475_ ._SX98_SY160_ ._AC_UF1000,1000_QL80_ ._SX318_CR0,0,318,475_
	sizeInfix = regexp.MustCompile(`\._(?:(?:(?:SX|SY|SS|SL|QL|CR|AC|SR|RC|UX|UY|UF|US)[0-9,]*)+_)+`)

	danglingUnderscore = regexp.MustCompile(`_+\.`)
)

const purellFlags = purell.FlagsSafe |
	purell.FlagRemoveDotSegments |
	purell.FlagRemoveDuplicateSlashes |
	purell.FlagRemoveFragment

// Normalize returns rawURL rewritten to request the largest available
// rendition. Input that is not an absolute http(s) URL is returned unchanged.
// Normalize(Normalize(u)) == Normalize(u) for every u.
func Normalize(rawURL string) string {
	current := strings.TrimSpace(rawURL)
	if current == "" {
		return rawURL
	}
	for i := 0; i < maxPasses; i++ {
		next, ok := normalizeOnce(current)
		if !ok {
			return rawURL
		}
		if next == current {
			return next
		}
		current = next
	}
	return current
}

func normalizeOnce(raw string) (string, bool) {
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}

	switch strings.ToLower(u.Scheme) {
	case "http":
		// :80 would mean TLS on the plain-text port once upgraded.
		if u.Port() == "80" {
			u.Host = strings.TrimSuffix(u.Host, ":80")
		}
		u.Scheme = "https"
	case "https":
		u.Scheme = "https"
	default:
		return "", false
	}

	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""

	path := u.Path
	for sizeFolder.MatchString(path) {
		path = sizeFolder.ReplaceAllString(path, "/")
	}
	path = sizeInfix.ReplaceAllString(path, "_")
	path = danglingUnderscore.ReplaceAllString(path, ".")
	if path != u.Path {
		u.Path = path
		u.RawPath = ""
	}

	return purell.NormalizeURL(u, purellFlags), true
}

// IsNoPhoto reports whether rawURL points at the content host's own
// "no photo available" artwork.
func IsNoPhoto(rawURL string) bool {
	return strings.Contains(strings.ToLower(rawURL), "/nophoto/")
}
