package main

import (
	"net/http"
	"testing"
	"time"

	"readingshelf/internal/config"
)

func TestNewServer_Timeouts(t *testing.T) {
	cfg := config.Config{Addr: ":1234", UpstreamTimeout: 10 * time.Second}
	srv := newServer(cfg, http.NotFoundHandler())

	if srv.Addr != ":1234" {
		t.Fatalf("expected addr from config, got %q", srv.Addr)
	}
	if srv.WriteTimeout != 45*time.Second {
		t.Fatalf("expected write timeout to cover the fallback chain, got %s", srv.WriteTimeout)
	}
	if srv.ReadHeaderTimeout == 0 {
		t.Fatalf("expected a read header timeout")
	}
}
