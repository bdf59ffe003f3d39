package imageproxy

import (
	"context"
	"errors"
	"log/slog"

	"readingshelf/internal/coverurl"
)

const DefaultCoverURL = "https://s.gr-assets.com/assets/nophoto/book/111x148-bcc042a9c91a29c1d680899eff700a03.png"

const (
	CacheControlFetched     = "public, max-age=86400"
	CacheControlCurated     = "public, max-age=604800"
	CacheControlPlaceholder = "public, max-age=3600"
)

var ErrMissingURL = errors.New("image url is required")

// Source names the fallback step that produced a Result.
type Source string

const (
	SourceOverride    Source = "override"
	SourceNormalized  Source = "normalized"
	SourceOriginal    Source = "original"
	SourceDefault     Source = "default"
	SourcePlaceholder Source = "placeholder"
)

type Result struct {
	Data         []byte
	ContentType  string
	Source       Source
	CacheControl string
}

// PlaceholderResult is the terminal step of the chain.
func PlaceholderResult(title string) Result {
	return Result{
		Data:         Placeholder(title),
		ContentType:  svgContentType,
		Source:       SourcePlaceholder,
		CacheControl: CacheControlPlaceholder,
	}
}

type step struct {
	source       Source
	url          string
	cacheControl string
}

// Service resolves a cover through override, normalized URL, original URL,
// default cover and finally a generated placeholder.
type Service struct {
	fetcher      ImageFetcher
	overrides    *Overrides
	defaultCover string
	metrics      *Metrics
	logger       *slog.Logger
}

func NewService(fetcher ImageFetcher, overrides *Overrides, defaultCover string, metrics *Metrics, logger *slog.Logger) *Service {
	if overrides == nil {
		overrides = NewOverrides(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher:      fetcher,
		overrides:    overrides,
		defaultCover: defaultCover,
		metrics:      metrics,
		logger:       logger,
	}
}

// Resolve always produces an image unless req has no URL.
func (s *Service) Resolve(ctx context.Context, req Request) (Result, error) {
	if req.URL == "" {
		return Result{}, ErrMissingURL
	}
	logger := s.logger.With("title", req.Title)

	tried := make(map[string]struct{})
	for _, st := range s.plan(req) {
		if st.url == "" {
			continue
		}
		if _, seen := tried[st.url]; seen {
			continue
		}
		tried[st.url] = struct{}{}

		img, err := s.fetcher.Fetch(ctx, st.url, req.Page)
		if err != nil {
			s.metrics.recordFailure(st.source)
			logger.Warn("cover step failed", "step", st.source, "url", st.url, "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		s.metrics.recordResolution(st.source)
		logger.Debug("cover resolved", "step", st.source, "url", st.url, "content_type", img.ContentType, "bytes", len(img.Data))
		return Result{
			Data:         img.Data,
			ContentType:  img.ContentType,
			Source:       st.source,
			CacheControl: st.cacheControl,
		}, nil
	}

	s.metrics.recordResolution(SourcePlaceholder)
	logger.Info("serving placeholder cover", "url", req.URL)
	return PlaceholderResult(req.Title), nil
}

func (s *Service) plan(req Request) []step {
	var steps []step

	if u, ok := s.overrides.Lookup(req.Title); ok {
		steps = append(steps, step{source: SourceOverride, url: u, cacheControl: CacheControlCurated})
	}

	normalized := coverurl.Normalize(req.URL)
	if !coverurl.IsNoPhoto(req.URL) {
		steps = append(steps, step{source: SourceNormalized, url: normalized, cacheControl: CacheControlFetched})
	}

	if !req.Retry {
		original := req.Original
		if original == "" && req.URL != normalized {
			original = req.URL
		}
		if original != "" && !coverurl.IsNoPhoto(original) {
			steps = append(steps, step{source: SourceOriginal, url: absoluteURL(original), cacheControl: CacheControlFetched})
		}
	}

	steps = append(steps, step{source: SourceDefault, url: s.defaultCover, cacheControl: CacheControlCurated})
	return steps
}
