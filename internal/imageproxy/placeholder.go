package imageproxy

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	placeholderTitle = "Book cover"
	maxTitleRunes    = 40
)

const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="150" height="225" viewBox="0 0 150 225">
  <rect width="150" height="225" fill="#f0f0f0"/>
  <rect x="15" y="15" width="120" height="195" fill="#e0e0e0" rx="2" ry="2"/>
  <text x="75" y="112.5" font-family="Arial" font-size="12" fill="#999" text-anchor="middle">%s</text>
</svg>`

var titlePolicy = bluemonday.StrictPolicy()

// Placeholder renders a 150x225 SVG cover carrying the book title.
func Placeholder(title string) []byte {
	return []byte(fmt.Sprintf(placeholderSVG, placeholderText(title)))
}

// placeholderText strips markup, truncates, then escapes for XML.
func placeholderText(title string) string {
	plain := html.UnescapeString(titlePolicy.Sanitize(title))
	plain = strings.Join(strings.Fields(plain), " ")
	if plain == "" {
		plain = placeholderTitle
	}
	if runes := []rune(plain); len(runes) > maxTitleRunes {
		plain = strings.TrimSpace(string(runes[:maxTitleRunes]))
	}
	return html.EscapeString(plain)
}
