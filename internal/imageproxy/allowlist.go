package imageproxy

import (
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/idna"
)

var DefaultAllowedHosts = []string{
	"i.gr-assets.com",
	"images.gr-assets.com",
	"s.gr-assets.com",
	"www.goodreads.com",
	"m.media-amazon.com",
	"covers.openlibrary.org",
	"books.google.com",
	"images.squarespace-cdn.com",
	"images-na.ssl-images-amazon.com",
}

// AllowList matches upstream hosts. An entry with a leading dot, like
// ".gr-assets.com", matches every subdomain of that domain.
type AllowList struct {
	exact    map[string]struct{}
	suffixes []string
}

func NewAllowList(hosts ...string) *AllowList {
	a := &AllowList{exact: make(map[string]struct{})}
	for _, h := range hosts {
		h = asciiHost(h)
		switch {
		case h == "" || h == ".":
			continue
		case strings.HasPrefix(h, "."):
			a.suffixes = append(a.suffixes, h)
		default:
			a.exact[h] = struct{}{}
		}
	}
	return a
}

// Allows reports whether rawURL is an absolute http(s) URL on a listed host.
func (a *AllowList) Allows(rawURL string) bool {
	host, ok := hostOf(rawURL)
	if !ok {
		return false
	}
	if _, ok := a.exact[host]; ok {
		return true
	}
	for _, suffix := range a.suffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}

// Hosts returns the configured entries in sorted order.
func (a *AllowList) Hosts() []string {
	out := make([]string, 0, len(a.exact)+len(a.suffixes))
	for h := range a.exact {
		out = append(out, h)
	}
	out = append(out, a.suffixes...)
	sort.Strings(out)
	return out
}

// HostsOf returns the hosts of the given URLs, skipping anything that is
// not an absolute http(s) URL.
func HostsOf(rawURLs ...string) []string {
	var hosts []string
	for _, raw := range rawURLs {
		if host, ok := hostOf(raw); ok {
			hosts = append(hosts, host)
		}
	}
	return hosts
}

// absoluteURL resolves a scheme-relative URL ("//host/path") to https.
func absoluteURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if strings.HasPrefix(rawURL, "//") {
		return "https:" + rawURL
	}
	return rawURL
}

func hostOf(rawURL string) (string, bool) {
	u, err := url.Parse(absoluteURL(rawURL))
	if err != nil {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", false
	}
	host := asciiHost(u.Hostname())
	return host, host != ""
}

// asciiHost lowercases host and converts internationalized labels to
// punycode so both sides of a comparison use the same form.
func asciiHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	ascii, err := idna.ToASCII(host)
	if err != nil {
		return ""
	}
	return ascii
}
