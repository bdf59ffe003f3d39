package shelf

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKey          = "shelf"
	DefaultRevalidate = 6 * time.Hour
)

// Service serves the shelf from a revalidation window. A successful fetch
// is kept for the window; failures are never cached. When a refetch fails
// and an earlier shelf exists, the earlier shelf is served.
type Service struct {
	source   Source
	cache    *expirable.LRU[string, Shelf]
	group    singleflight.Group
	lastGood atomic.Pointer[Shelf]
	lastRun  atomic.Pointer[Run]
	metrics  *Metrics
	logger   *slog.Logger
}

func NewService(source Source, revalidate time.Duration, metrics *Metrics, logger *slog.Logger) *Service {
	if revalidate <= 0 {
		revalidate = DefaultRevalidate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:  source,
		cache:   expirable.NewLRU[string, Shelf](1, nil, revalidate),
		metrics: metrics,
		logger:  logger,
	}
}

// Shelf returns the cached shelf, fetching it when the window has expired.
func (s *Service) Shelf(ctx context.Context) (Shelf, error) {
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached, nil
	}
	return s.load(ctx)
}

// Refresh fetches the feed regardless of the window.
func (s *Service) Refresh(ctx context.Context) (Shelf, error) {
	return s.load(ctx)
}

// Ready reports whether at least one fetch attempt has completed.
func (s *Service) Ready() bool {
	return s.lastRun.Load() != nil
}

// LastRun returns the most recent fetch attempt, if any.
func (s *Service) LastRun() (Run, bool) {
	run := s.lastRun.Load()
	if run == nil {
		return Run{}, false
	}
	return *run, true
}

func (s *Service) load(ctx context.Context) (Shelf, error) {
	// Callers share one fetch; it must not die with the first caller's request.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		return s.fetch(shared)
	})
	if err == nil {
		return v.(Shelf), nil
	}

	if prev := s.lastGood.Load(); prev != nil {
		s.logger.Warn("serving previous shelf after failed refresh", "error", err)
		return *prev, nil
	}
	return Empty(), err
}

func (s *Service) fetch(ctx context.Context) (Shelf, error) {
	run := &Run{StartedAt: time.Now(), Status: RunStatusRunning}

	shelf, err := s.source.Fetch(ctx)
	run.finish(shelf, err)
	s.lastRun.Store(run)

	if err != nil {
		s.metrics.recordFetch("error", run.Duration())
		s.logger.Error("feed fetch failed", "error", err, "duration", run.Duration())
		return Empty(), err
	}

	s.metrics.recordFetch("ok", run.Duration())
	s.metrics.recordShelf(shelf)
	s.logger.Info("feed fetched",
		"currently_reading", len(shelf.CurrentlyReading),
		"recently_read", len(shelf.RecentlyRead),
		"duration", run.Duration(),
	)

	s.cache.Add(cacheKey, shelf)
	s.lastGood.Store(&shelf)
	return shelf, nil
}
