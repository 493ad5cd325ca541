// Package metrics exposes Prometheus collectors shared by the league
// agents. All collectors register on the default registry; each binary
// mounts Handler() next to its API routes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MatchesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "league",
		Name:      "matches_started_total",
		Help:      "Match coordinators started.",
	})

	MatchesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "league",
		Name:      "matches_completed_total",
		Help:      "Match coordinators finished, by outcome.",
	}, []string{"outcome"})

	Forfeits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "league",
		Name:      "forfeits_total",
		Help:      "Forfeited matches, by reason.",
	}, []string{"reason"})

	DispatchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "league",
		Subsystem: "dispatch",
		Name:      "retries_total",
		Help:      "Message deliveries that needed another attempt.",
	})

	DispatchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "league",
		Subsystem: "dispatch",
		Name:      "failures_total",
		Help:      "Message deliveries abandoned after the final attempt.",
	})

	ResultsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "league",
		Name:      "results_applied_total",
		Help:      "Match results folded into the standings.",
	})

	ResultsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "league",
		Name:      "results_duplicate_total",
		Help:      "Match results ignored as already applied.",
	})

	RoundDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "league",
		Name:      "round_duration_seconds",
		Help:      "Wall time from round announcement to completion.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	SlotQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "league",
		Name:      "slot_queue_depth",
		Help:      "Matches waiting for a free coordinator slot.",
	})

	SlotsBusy = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "league",
		Name:      "slots_busy",
		Help:      "Coordinator slots currently held.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
