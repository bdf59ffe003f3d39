package imageproxy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	resolutions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	cache       *prometheus.CounterVec
}

// NewMetrics registers the image metrics on reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "readingshelf",
				Name:      "image_resolutions_total",
				Help:      "Total number of cover requests by the step that answered them",
			},
			[]string{"source"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "readingshelf",
				Name:      "image_fetch_failures_total",
				Help:      "Total number of failed fallback steps",
			},
			[]string{"step"},
		),
		cache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "readingshelf",
				Name:      "image_cache_lookups_total",
				Help:      "Total number of image cache lookups by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) recordResolution(source Source) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) recordFailure(step Source) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(string(step)).Inc()
}

func (m *Metrics) recordCache(outcome string) {
	if m == nil {
		return
	}
	m.cache.WithLabelValues(outcome).Inc()
}
