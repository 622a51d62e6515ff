// Package metrics exposes Prometheus collectors for the mention pipeline
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Mentions counts processed mentions by outcome (pass or a reject reason)
	Mentions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatbridge",
		Name:      "mentions_total",
		Help:      "Mentions processed, by outcome.",
	}, []string{"outcome"})

	// Generations counts backend calls by result
	Generations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatbridge",
		Name:      "generations_total",
		Help:      "Text generation calls, by result (ok, timeout, error, no_answer).",
	}, []string{"result"})

	// GenerationSeconds observes backend latency for calls that returned in time
	GenerationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "chatbridge",
		Name:      "generation_duration_seconds",
		Help:      "Latency of text generation calls that finished before the deadline.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})

	// DailyCost is the last observed aggregate spend for the current day
	DailyCost = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "chatbridge",
		Name:      "daily_cost",
		Help:      "Aggregate generation cost recorded today, as last read by the cost gate.",
	})

	// RepliesPosted counts outbound reply segments
	RepliesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chatbridge",
		Name:      "replies_posted_total",
		Help:      "Reply segments posted.",
	})
)
