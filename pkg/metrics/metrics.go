// Package metrics declares the prometheus collectors shared by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "spellserve"

// Cache outcomes.
const (
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeWait     = "wait"
	OutcomeFallback = "fallback"
)

var (
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Coalescing cache lookups by outcome.",
	}, []string{"outcome"})

	DiscoverDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "discover_duration_seconds",
		Help:      "Time spent searching the trie for one query.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"distance"})

	DiscoverMatches = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "discover_matches",
		Help:      "Number of words found per query.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	DictionaryWords = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dictionary_words",
		Help:      "Words loaded into the trie.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "code"})
)
