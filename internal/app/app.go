package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"readingshelf/internal/config"
	"readingshelf/internal/httpx"
	"readingshelf/internal/imageproxy"
	"readingshelf/internal/platform/upstream"
	"readingshelf/internal/shelf"
)

const ImageProxyPath = "/v1/image-proxy"

// App holds the wired services behind the HTTP API.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Registry  *prometheus.Registry
	Client    *upstream.Client
	Shelf     *shelf.Service
	Refresher *shelf.Refresher
	Covers    *imageproxy.Service
	Images    *imageproxy.CachedFetcher
}

func New(cfg config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client := upstream.NewClient(upstream.Options{
		Timeout:    cfg.UpstreamTimeout,
		RPS:        cfg.UpstreamRPS,
		MaxRetries: cfg.UpstreamRetries,
		MaxBytes:   cfg.ImageMaxBytes,
		UserAgents: cfg.UserAgents,
	})

	shelfLogger := logger.With("component", "shelf")
	source := shelf.NewFeedSource(cfg.FeedURL, client, shelf.NewExtractor(ImageProxyPath))
	shelfService := shelf.NewService(source, cfg.FeedRevalidate, shelf.NewMetrics(reg), shelfLogger)

	imageLogger := logger.With("component", "imageproxy")
	imageMetrics := imageproxy.NewMetrics(reg)
	fetcher := imageproxy.NewFetcher(client, imageproxy.NewAllowList(cfg.AllowedHosts...), cfg.DefaultReferer, cfg.ImageMaxBytes)
	cached := imageproxy.NewCachedFetcher(fetcher, cfg.ImageCacheSize, cfg.ImageCacheMaxBytes, cfg.ImageCacheTTL, imageMetrics)
	covers := imageproxy.NewService(cached, imageproxy.NewOverrides(cfg.Overrides), cfg.DefaultCoverURL, imageMetrics, imageLogger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Registry:  reg,
		Client:    client,
		Shelf:     shelfService,
		Refresher: shelf.NewRefresher(shelfService, cfg.FeedRevalidate, shelfLogger),
		Covers:    covers,
		Images:    cached,
	}
}

// Routes returns the full handler with middleware applied. ctx bounds the
// rate limiter's background cleanup.
func (a *App) Routes(ctx context.Context) http.Handler {
	shelfHandler := shelf.NewHTTPHandler(a.Shelf, a.Logger)
	imageHandler := imageproxy.NewHTTPHandler(a.Covers, a.Logger)

	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !a.Shelf.Ready() {
			http.Error(w, "feed not loaded", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.HandleFunc("GET /v1/reading-shelf", shelfHandler.Get)
	router.HandleFunc("GET /v1/reading-shelf/status", a.status)
	router.HandleFunc("GET "+ImageProxyPath, imageHandler.Proxy)
	router.HandleFunc("GET /v1/book-cover/{path...}", imageHandler.BookCover)
	router.Handle("GET /metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry}))

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONErrorWithRequest(r, w, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	})

	limiter := httpx.NewRateLimitMiddleware(ctx, a.Config.RateLimitRPS, a.Config.RateLimitBurst)

	return httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(a.Logger),
		httpx.RecoveryMiddleware(a.Logger),
		httpx.SecurityHeadersMiddleware(a.Config.EnableHSTS),
		httpx.CORSMiddleware(a.Config.CORSOrigins),
		limiter.Middleware,
	)
}

type statusResponse struct {
	Ready            bool       `json:"ready"`
	LastRun          *shelf.Run `json:"lastRun,omitempty"`
	CachedCovers     int        `json:"cachedCovers"`
	CachedCoverBytes int64      `json:"cachedCoverBytes"`
}

// status handles GET /v1/reading-shelf/status
func (a *App) status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Ready:            a.Shelf.Ready(),
		CachedCovers:     a.Images.Len(),
		CachedCoverBytes: a.Images.Bytes(),
	}
	if run, ok := a.Shelf.LastRun(); ok {
		resp.LastRun = &run
	}
	httpx.JSONSuccessWithRequest(r, w, resp, nil)
}
