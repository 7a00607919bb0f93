// Package metrics exposes Prometheus instrumentation for the content engine.
//
// Label cardinality is kept deliberately small: generation is labelled by
// model and outcome, verification by outcome reason. All collectors are safe
// for concurrent use and registered once at package load.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// genAttempts counts individual LLM generation attempts by model and outcome
	// ("success", "parse_error", "invalid_round", "request_error").
	genAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_attempts_total",
			Help: "Total number of LLM generation attempts.",
		},
		[]string{"model", "outcome"},
	)

	// genDuration records wall-clock duration of a full generation call
	// (all attempts plus fallback) by final outcome.
	genDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_duration_seconds",
			Help:    "Duration of complete generation calls in seconds.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"outcome"},
	)

	// verifyLookups counts verification results by outcome: "ok", "mismatch",
	// "no_content", "timeout", "error".
	verifyLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_lookups_total",
			Help: "Total number of fact verification lookups by outcome.",
		},
		[]string{"outcome"},
	)

	// roundsIngested counts rounds accepted into the store by source
	// ("pack", "generated").
	roundsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rounds_ingested_total",
			Help: "Total number of rounds ingested into the content store.",
		},
		[]string{"source"},
	)

	// factsQuarantined counts facts removed from circulation by the quality
	// tracker.
	factsQuarantined = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "facts_quarantined_total",
			Help: "Total number of facts quarantined for low quality.",
		},
	)
)

func init() {
	prometheus.MustRegister(genAttempts, genDuration, verifyLookups, roundsIngested, factsQuarantined)
}

// GenerationAttempt records one LLM attempt outcome for a model.
func GenerationAttempt(model, outcome string) {
	genAttempts.WithLabelValues(model, outcome).Inc()
}

// GenerationFinished records the duration of a complete generation call.
func GenerationFinished(outcome string, d time.Duration) {
	genDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// VerificationLookup records one verification outcome.
func VerificationLookup(outcome string) {
	verifyLookups.WithLabelValues(outcome).Inc()
}

// RoundIngested records an accepted round by source.
func RoundIngested(source string) {
	roundsIngested.WithLabelValues(source).Inc()
}

// FactsQuarantined records n facts quarantined in a recompute pass.
func FactsQuarantined(n int) {
	factsQuarantined.Add(float64(n))
}
