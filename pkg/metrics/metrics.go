// Package metrics exposes Prometheus instrumentation for the
// requirement resolver.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ResolverMetrics counts the observable events of requirement
// resolution runs. A nil *ResolverMetrics is valid and records nothing,
// so library callers that don't run a metrics endpoint pay no cost.
type ResolverMetrics struct {
	Resolutions          prometheus.Counter
	CyclesDetected       prometheus.Counter
	UnresolvedReferences prometheus.Counter
	FailedRequests       prometheus.Counter
}

// NewResolverMetrics registers resolver counters on the given
// registerer.
func NewResolverMetrics(reg prometheus.Registerer) *ResolverMetrics {
	factory := promauto.With(reg)

	return &ResolverMetrics{
		Resolutions: factory.NewCounter(prometheus.CounterOpts{
			Name: "fabplan_resolutions_total",
			Help: "Total number of requirement resolution runs.",
		}),
		CyclesDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "fabplan_cycles_detected_total",
			Help: "Recipe graph cycles truncated during resolution.",
		}),
		UnresolvedReferences: factory.NewCounter(prometheus.CounterOpts{
			Name: "fabplan_unresolved_references_total",
			Help: "Recipe lines whose material id matched no catalog.",
		}),
		FailedRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "fabplan_failed_requests_total",
			Help: "Top-level requests dropped after a catalog failure.",
		}),
	}
}

// ObserveResolution records one resolution run.
func (m *ResolverMetrics) ObserveResolution() {
	if m == nil {
		return
	}
	m.Resolutions.Inc()
}

// ObserveCycle records one truncated recipe cycle.
func (m *ResolverMetrics) ObserveCycle() {
	if m == nil {
		return
	}
	m.CyclesDetected.Inc()
}

// ObserveUnresolvedReference records one skipped recipe line.
func (m *ResolverMetrics) ObserveUnresolvedReference() {
	if m == nil {
		return
	}
	m.UnresolvedReferences.Inc()
}

// ObserveFailedRequest records one dropped top-level request.
func (m *ResolverMetrics) ObserveFailedRequest() {
	if m == nil {
		return
	}
	m.FailedRequests.Inc()
}
