package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"readingshelf/internal/imageproxy"
)

// inTempDir runs the test from an empty directory so no stray .env file is
// picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	cwd, _ := os.Getwd()
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	return tmp
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.FeedRevalidate != 6*time.Hour {
		t.Fatalf("expected 6h revalidate, got %s", cfg.FeedRevalidate)
	}
	if cfg.DefaultCoverURL != imageproxy.DefaultCoverURL {
		t.Fatalf("unexpected default cover %q", cfg.DefaultCoverURL)
	}
	if len(cfg.Overrides) != len(imageproxy.DefaultOverrides) {
		t.Fatalf("expected built-in overrides, got %d", len(cfg.Overrides))
	}
	for _, h := range imageproxy.DefaultAllowedHosts {
		if !slices.Contains(cfg.AllowedHosts, h) {
			t.Fatalf("expected %s in allowed hosts", h)
		}
	}
	if cfg.ImageCacheMaxBytes != imageproxy.DefaultCacheMaxBytes {
		t.Fatalf("expected default cache byte budget, got %d", cfg.ImageCacheMaxBytes)
	}
	if !slices.Equal(cfg.CORSOrigins, []string{"*"}) {
		t.Fatalf("expected wildcard CORS, got %v", cfg.CORSOrigins)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	inTempDir(t)
	t.Setenv("APP_ADDR", ":9090")
	t.Setenv("FEED_URL", "https://feeds.example.com/shelf.rss")
	t.Setenv("FEED_REVALIDATE", "15m")
	t.Setenv("ALLOWED_HOSTS", "covers.example.com, .cdn.example.com")
	t.Setenv("USER_AGENTS", "agent-a/1.0 (x, y)|agent-b/2.0")
	t.Setenv("DEFAULT_COVER_URL", "https://static.example.org/nocover.png")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("IMAGE_CACHE_MAX_BYTES", "1048576")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.FeedURL != "https://feeds.example.com/shelf.rss" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.FeedRevalidate != 15*time.Minute {
		t.Fatalf("expected 15m, got %s", cfg.FeedRevalidate)
	}
	if !slices.Equal(cfg.UserAgents, []string{"agent-a/1.0 (x, y)", "agent-b/2.0"}) {
		t.Fatalf("user agents split wrong: %q", cfg.UserAgents)
	}
	for _, h := range []string{"covers.example.com", ".cdn.example.com", "static.example.org", "m.media-amazon.com"} {
		if !slices.Contains(cfg.AllowedHosts, h) {
			t.Fatalf("expected %s in %v", h, cfg.AllowedHosts)
		}
	}
	if slices.Contains(cfg.AllowedHosts, "s.gr-assets.com") {
		t.Fatalf("ALLOWED_HOSTS should replace the default list, got %v", cfg.AllowedHosts)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected lowercased level, got %q", cfg.LogLevel)
	}
	if cfg.ImageCacheMaxBytes != 1<<20 {
		t.Fatalf("expected 1MiB cache budget, got %d", cfg.ImageCacheMaxBytes)
	}
}

func TestLoad_EnvFileDoesNotOverrideExistingEnv(t *testing.T) {
	tmp := inTempDir(t)
	content := "APP_ADDR=:7000\nFEED_REVALIDATE=1h\n"
	if err := os.WriteFile(filepath.Join(tmp, ".env"), []byte(content), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("APP_ADDR", ":9999")
	// Present but empty still blocks the file value.
	t.Setenv("FEED_REVALIDATE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("expected existing env to win, got %q", cfg.Addr)
	}
	if cfg.FeedRevalidate != 6*time.Hour {
		t.Fatalf("expected default revalidate, got %s", cfg.FeedRevalidate)
	}
}

func TestLoad_CoversFile(t *testing.T) {
	tmp := inTempDir(t)
	path := filepath.Join(tmp, "covers.yaml")
	doc := `allowed_hosts:
  - images.example.net
overrides:
  "The Left Hand of Darkness": https://art.example.com/lhod.jpg
user_agents:
  - shelf-test/1.0
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("write covers: %v", err)
	}
	t.Setenv("COVERS_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Overrides["The Left Hand of Darkness"]; got != "https://art.example.com/lhod.jpg" {
		t.Fatalf("override missing, got %q", got)
	}
	if _, ok := cfg.Overrides["Norwegian Wood"]; !ok {
		t.Fatalf("file overrides should add to the built-in ones")
	}
	for _, h := range []string{"images.example.net", "art.example.com", "i.gr-assets.com"} {
		if !slices.Contains(cfg.AllowedHosts, h) {
			t.Fatalf("expected %s in %v", h, cfg.AllowedHosts)
		}
	}
	if !slices.Equal(cfg.UserAgents, []string{"shelf-test/1.0"}) {
		t.Fatalf("expected file user agents, got %v", cfg.UserAgents)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	inTempDir(t)
	t.Setenv("UPSTREAM_TIMEOUT", "soon")
	t.Setenv("RATE_LIMIT_BURST", "many")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected an error")
	}
	for _, key := range []string{"UPSTREAM_TIMEOUT", "RATE_LIMIT_BURST"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in %v", key, err)
		}
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	inTempDir(t)
	t.Setenv("FEED_URL", "not a url")
	t.Setenv("LOG_FORMAT", "xml")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "FeedURL") || !strings.Contains(msg, "LogFormat") {
		t.Fatalf("expected both fields reported, got %v", err)
	}
}

func TestLoad_MissingCoversFile(t *testing.T) {
	inTempDir(t)
	t.Setenv("COVERS_FILE", "does-not-exist.yaml")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "covers file") {
		t.Fatalf("expected covers file error, got %v", err)
	}
}
