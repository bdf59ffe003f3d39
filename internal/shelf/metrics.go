package shelf

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	fetches  *prometheus.CounterVec
	duration prometheus.Histogram
	entries  *prometheus.GaugeVec
}

// NewMetrics registers the feed metrics on reg. A nil reg keeps them
// unregistered, which tests rely on.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "readingshelf",
				Name:      "feed_fetches_total",
				Help:      "Total number of feed fetches by result",
			},
			[]string{"result"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "readingshelf",
				Name:      "feed_fetch_duration_seconds",
				Help:      "Duration of feed fetches in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		entries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "readingshelf",
				Name:      "shelf_entries",
				Help:      "Entries on the last successfully fetched shelf",
			},
			[]string{"list"},
		),
	}
}

func (m *Metrics) recordFetch(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) recordShelf(s Shelf) {
	if m == nil {
		return
	}
	m.entries.WithLabelValues("currently_reading").Set(float64(len(s.CurrentlyReading)))
	m.entries.WithLabelValues("recently_read").Set(float64(len(s.RecentlyRead)))
}
