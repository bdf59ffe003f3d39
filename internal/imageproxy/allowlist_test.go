package imageproxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowList_Allows(t *testing.T) {
	a := NewAllowList("i.gr-assets.com", "M.Media-Amazon.com", ".openlibrary.org", " ", "")

	tests := []struct {
		url  string
		want bool
	}{
		{"https://i.gr-assets.com/images/a.jpg", true},
		{"http://I.GR-ASSETS.COM/images/a.jpg", true},
		{"https://i.gr-assets.com:443/images/a.jpg", true},
		{"https://m.media-amazon.com/images/I/1.jpg", true},
		{"https://covers.openlibrary.org/b/id/1-L.jpg", true},
		{"https://openlibrary.org.evil.example/a.jpg", false},
		{"https://evil.example/i.gr-assets.com/a.jpg", false},
		{"https://x.gr-assets.com/a.jpg", false},
		{"ftp://i.gr-assets.com/a.jpg", false},
		{"//i.gr-assets.com/a.jpg", true},
		{" //I.GR-ASSETS.COM/a.jpg", true},
		{"//evil.example/a.jpg", false},
		{"not a url", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.Allows(tt.url), tt.url)
	}
}

func TestAllowList_Hosts(t *testing.T) {
	a := NewAllowList("b.example", "A.example", ".c.example")
	assert.Equal(t, []string{".c.example", "a.example", "b.example"}, a.Hosts())
}

func TestHostsOf(t *testing.T) {
	got := HostsOf(
		"https://images.squarespace-cdn.com/content/a.jpg",
		"",
		"mailto:x@example.com",
		"http://Covers.OpenLibrary.org/b.jpg",
	)
	assert.Equal(t, []string{"images.squarespace-cdn.com", "covers.openlibrary.org"}, got)
}

func TestDefaultAllowList(t *testing.T) {
	a := NewAllowList(DefaultAllowedHosts...)
	for _, u := range DefaultOverrides {
		assert.True(t, a.Allows(u), u)
	}
	assert.True(t, a.Allows(DefaultCoverURL))
}

func TestAllowList_InternationalizedHosts(t *testing.T) {
	a := NewAllowList("bücher.example")

	assert.True(t, a.Allows("https://xn--bcher-kva.example/cover.jpg"))
	assert.True(t, a.Allows("https://BÜCHER.example/cover.jpg"))
	assert.Equal(t, []string{"xn--bcher-kva.example"}, a.Hosts())
}
