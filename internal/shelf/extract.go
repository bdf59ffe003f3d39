package shelf

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"readingshelf/internal/coverurl"
)

var (
	currentlyReadingPhrase = regexp.MustCompile(`(?i)\bcurrently reading\b`)
	finishedPhrase         = regexp.MustCompile(`(?i)\b(?:finished reading|rated)\b`)

	// Quotes open at a word boundary and close before space or punctuation,
	// so apostrophes inside words never delimit a title.
	quotedTitle   = regexp.MustCompile(`(?:^|[\s:(\[])['‘](.+?)['’](?:[\s.,;:!?)\]]|$)`)
	unquotedTitle = regexp.MustCompile(`(?i)^[\s:\-]*(.*?)(?:\s+by\s+|$)`)
	byAuthor      = regexp.MustCompile(`(?i)\bby\s+([^(]+)`)
	ratingSuffix  = regexp.MustCompile(`(?i)\s*\d+\s+of\s+5\s+stars.*$`)

	pageOrPercent = regexp.MustCompile(`(?i)(page \d+ of \d+|\d+%)`)
	percentDone   = regexp.MustCompile(`(?i)(\d+)% done`)
	onPage        = regexp.MustCompile(`(?i)on page (\d+)`)

	starsInTitle = regexp.MustCompile(`(?i)(\d+)\s+of\s+5\s+stars`)
	starGlyphs   = regexp.MustCompile(`★+`)
)

var textPolicy = bluemonday.StrictPolicy()

// Extractor turns feed items into shelf entries.
type Extractor struct {
	proxyPath string
}

// NewExtractor returns an Extractor. When proxyPath is set, entries with a
// cover also get a ready-made proxy URL under that path.
func NewExtractor(proxyPath string) *Extractor {
	return &Extractor{proxyPath: proxyPath}
}

// Extract returns the classifiable items of feed in feed order.
func (x *Extractor) Extract(feed *gofeed.Feed) []Entry {
	if feed == nil {
		return nil
	}
	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if e, ok := x.ExtractItem(item); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// ExtractItem parses one item. It reports false only when the item is
// neither a currently-reading nor a finished update.
func (x *Extractor) ExtractItem(item *gofeed.Item) (Entry, bool) {
	if item == nil {
		return Entry{}, false
	}
	rawTitle := strings.TrimSpace(item.Title)
	kind, remainder, ok := classify(rawTitle)
	if !ok {
		return Entry{}, false
	}

	description := item.Description
	if description == "" {
		description = item.Content
	}
	text := plainText(description)

	title, rest := extractTitle(remainder)
	if title == "" {
		title = firstNonEmpty(item.Custom["book_title"], item.Custom["title"], rawTitle)
	}

	e := Entry{
		Kind:        kind,
		Title:       title,
		Author:      extractAuthor(rest, item.Custom),
		Link:        strings.TrimSpace(item.Link),
		BookID:      strings.TrimSpace(item.Custom["book_id"]),
		PublishedAt: item.PublishedParsed,
	}

	if raw := extractCover(item, description); raw != "" {
		e.CoverURLRaw = raw
		e.CoverURLNormalized = coverurl.Normalize(raw)
		e.CoverProxyURL = x.proxyURL(e)
	}

	switch kind {
	case KindCurrentlyReading:
		e.Progress = extractProgress(text)
	case KindFinished:
		e.Rating = extractRating(rawTitle, text, item.Custom)
	}
	return e, true
}

func (x *Extractor) proxyURL(e Entry) string {
	if x.proxyPath == "" || e.CoverURLNormalized == "" {
		return ""
	}
	q := url.Values{}
	q.Set("url", e.CoverURLNormalized)
	if e.CoverURLRaw != e.CoverURLNormalized {
		q.Set("original", e.CoverURLRaw)
	}
	q.Set("title", e.Title)
	if e.Link != "" {
		q.Set("page", e.Link)
	}
	return x.proxyPath + "?" + q.Encode()
}

// classify returns the entry kind and the title text that follows the
// status phrase.
func classify(title string) (Kind, string, bool) {
	if loc := currentlyReadingPhrase.FindStringIndex(title); loc != nil {
		return KindCurrentlyReading, title[loc[1]:], true
	}
	if loc := finishedPhrase.FindStringIndex(title); loc != nil {
		return KindFinished, title[loc[1]:], true
	}
	return "", "", false
}

// extractTitle prefers the first quoted span anywhere in the remainder, then
// the text up to " by ". It also
// returns what is left after the title for author extraction.
func extractTitle(remainder string) (string, string) {
	if m := quotedTitle.FindStringSubmatchIndex(remainder); m != nil {
		return strings.TrimSpace(remainder[m[2]:m[3]]), remainder[m[1]:]
	}
	if m := unquotedTitle.FindStringSubmatchIndex(remainder); m != nil {
		title := strings.TrimSpace(remainder[m[2]:m[3]])
		title = strings.TrimSpace(ratingSuffix.ReplaceAllString(title, ""))
		return title, remainder[m[3]:]
	}
	return "", remainder
}

func extractAuthor(rest string, custom map[string]string) string {
	if name := strings.TrimSpace(custom["author_name"]); name != "" {
		return name
	}
	m := byAuthor.FindStringSubmatch(rest)
	if m == nil {
		return ""
	}
	author := ratingSuffix.ReplaceAllString(m[1], "")
	return strings.TrimRight(strings.TrimSpace(author), ".,;:")
}

func extractProgress(text string) string {
	if m := pageOrPercent.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := percentDone.FindStringSubmatch(text); m != nil {
		return m[1] + "%"
	}
	if m := onPage.FindStringSubmatch(text); m != nil {
		return "page " + m[1]
	}
	return ""
}

func extractRating(title, text string, custom map[string]string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(custom["user_rating"])); err == nil && validRating(n) {
		return n
	}
	if m := starsInTitle.FindStringSubmatch(title); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && validRating(n) {
			return n
		}
	}
	if stars := starGlyphs.FindString(text); stars != "" {
		if n := utf8.RuneCountInString(stars); validRating(n) {
			return n
		}
	}
	return 0
}

func validRating(n int) bool {
	return n >= 1 && n <= 5
}

// plainText strips markup from an embedded HTML snippet and collapses
// whitespace.
func plainText(snippet string) string {
	if snippet == "" {
		return ""
	}
	spaced := strings.ReplaceAll(snippet, ">", "> ")
	return strings.Join(strings.Fields(html.UnescapeString(textPolicy.Sanitize(spaced))), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
