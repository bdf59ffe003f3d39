package shelf

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// Structured cover fields, largest first.
var coverFields = []string{
	"book_large_image_url",
	"book_medium_image_url",
	"book_small_image_url",
	"book_image_url",
}

var (
	escapedSrc     = regexp.MustCompile(`(?i)src=\\"(.*?)\\"`)
	directCoverURL = regexp.MustCompile(`(?i)https?://(?:i|images|s)\.gr-assets\.com/\S+?\.(?:jpe?g|png|gif|webp)`)
)

// extractCover tries each cover strategy in priority order and returns the
// first usable URL, or "" when the item carries no recognizable cover.
func extractCover(item *gofeed.Item, description string) string {
	for _, field := range coverFields {
		if u := cleanImageURL(item.Custom[field]); u != "" {
			return u
		}
	}

	if u := feedImage(item); u != "" {
		return u
	}

	if u := descriptionImage(description); u != "" {
		return u
	}

	if m := escapedSrc.FindStringSubmatch(description); m != nil {
		if u := cleanImageURL(strings.ReplaceAll(m[1], `\/`, "/")); u != "" {
			return u
		}
	}

	return directCoverURL.FindString(description)
}

// feedImage picks the image gofeed already understood.
// Priority: Item.Image > media:thumbnail > media:content (medium=image) > image enclosure.
func feedImage(item *gofeed.Item) string {
	if item.Image != nil {
		if u := cleanImageURL(item.Image.URL); u != "" {
			return u
		}
	}

	if media, ok := item.Extensions["media"]; ok {
		for _, thumb := range media["thumbnail"] {
			if u := cleanImageURL(thumb.Attrs["url"]); u != "" {
				return u
			}
		}
		for _, content := range media["content"] {
			if content.Attrs["medium"] != "image" {
				continue
			}
			if u := cleanImageURL(content.Attrs["url"]); u != "" {
				return u
			}
		}
	}

	for _, enc := range item.Enclosures {
		if enc == nil || !strings.HasPrefix(enc.Type, "image/") {
			continue
		}
		if u := cleanImageURL(enc.URL); u != "" {
			return u
		}
	}
	return ""
}

func descriptionImage(description string) string {
	if !strings.Contains(strings.ToLower(description), "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return ""
	}

	var found string
	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if u := cleanImageURL(src); u != "" {
			found = u
			return false
		}
		return true
	})
	return found
}

// cleanImageURL accepts absolute http(s) and scheme-relative URLs only.
func cleanImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	switch u.Scheme {
	case "http", "https", "":
		return raw
	}
	return ""
}
