package shelf

import (
	"context"
	"log/slog"
	"time"
)

const (
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// Run records one feed fetch attempt.
type Run struct {
	StartedAt        time.Time  `json:"startedAt"`
	FinishedAt       *time.Time `json:"finishedAt,omitempty"`
	Status           string     `json:"status"`
	CurrentlyReading int        `json:"currentlyReading"`
	RecentlyRead     int        `json:"recentlyRead"`
	Error            string     `json:"error,omitempty"`
}

func (r *Run) finish(s Shelf, err error) {
	now := time.Now()
	r.FinishedAt = &now
	if err != nil {
		r.Status = RunStatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = RunStatusCompleted
	r.CurrentlyReading = len(s.CurrentlyReading)
	r.RecentlyRead = len(s.RecentlyRead)
}

func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Refresher keeps the shelf warm by refreshing it once per interval.
type Refresher struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

func NewRefresher(service *Service, interval time.Duration, logger *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultRevalidate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{service: service, interval: interval, logger: logger}
}

// Run refreshes immediately, then on every tick until ctx is cancelled.
// Failed refreshes are logged and retried on the next tick.
func (r *Refresher) Run(ctx context.Context) {
	r.refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("feed refresher stopped")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := r.service.Refresh(ctx); err != nil {
		r.logger.Warn("scheduled feed refresh failed", "error", err, "next_in", r.interval)
	}
}
