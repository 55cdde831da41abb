// Package metrics exposes Prometheus instrumentation for DID resolution and
// credential verification.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcomes.
const (
	OutcomeResolved = "resolved"
	OutcomeFailed   = "failed"
)

// Verification outcomes.
const (
	OutcomeVerified   = "verified"
	OutcomeUnsigned   = "unsigned"
	OutcomeInvalid    = "invalid"
	OutcomeSigFailure = "signature_failed"
)

// Metrics tracks DID resolutions, cache behaviour and verification outcomes.
type Metrics struct {
	DIDResolutions        *prometheus.CounterVec
	DIDCacheHits          prometheus.Counter
	DIDResolutionDuration *prometheus.HistogramVec
	Verifications         *prometheus.CounterVec
}

// New creates the metrics and registers them with reg. A nil reg leaves them
// unregistered, which keeps repeated construction in tests safe.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		DIDResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dpp_did_resolutions_total",
			Help: "Total number of DID resolutions by method and outcome",
		}, []string{"method", "outcome"}),
		DIDCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "dpp_did_cache_hits_total",
			Help: "Total number of DID resolutions served from the document cache",
		}),
		DIDResolutionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dpp_did_resolution_duration_seconds",
			Help:    "Duration of uncached DID resolutions",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method"}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dpp_credential_verifications_total",
			Help: "Total number of credential verifications by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveResolution records an uncached resolution that started at start.
func (m *Metrics) ObserveResolution(method string, start time.Time, ok bool) {
	if m == nil {
		return
	}

	outcome := OutcomeResolved
	if !ok {
		outcome = OutcomeFailed
	}
	m.DIDResolutions.WithLabelValues(method, outcome).Inc()
	m.DIDResolutionDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// IncrementCacheHit records a resolution served from cache.
func (m *Metrics) IncrementCacheHit() {
	if m == nil {
		return
	}
	m.DIDCacheHits.Inc()
}

// IncrementVerification records the outcome of one credential verification.
func (m *Metrics) IncrementVerification(outcome string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(outcome).Inc()
}
