package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// SelectorChangesTotal counts selector changes handled by filter sessions
	SelectorChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prisonfacets_selector_changes_total",
			Help: "Total number of facet selector changes",
		},
		[]string{"facet", "action"}, // action: set, clear
	)

	// ModeTransitionsTotal counts transitions between normal and no-matches
	ModeTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prisonfacets_mode_transitions_total",
			Help: "Total number of option list mode transitions",
		},
		[]string{"to"}, // to: normal, no_matches
	)

	// ProjectionDuration measures how long a session change takes end to end
	ProjectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prisonfacets_projection_duration_seconds",
			Help:    "Time taken to recompute and project eligibility for a session",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~200ms
		},
		[]string{"operation"},
	)

	// EligibleRecords tracks the eligible record count of the last projection
	EligibleRecords = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prisonfacets_eligible_records",
			Help:    "Number of eligible records after a projection",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 200},
		},
	)

	// SessionsTotal counts filter sessions by lifecycle event
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prisonfacets_sessions_total",
			Help: "Total number of filter session lifecycle events",
		},
		[]string{"event"}, // event: created, deleted
	)

	// CatalogRefreshTotal counts prison list refreshes
	CatalogRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prisonfacets_catalog_refresh_total",
			Help: "Total number of prison list refreshes",
		},
		[]string{"status"}, // status: success, error
	)

	// CatalogRefreshDuration measures prison list refresh time
	CatalogRefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prisonfacets_catalog_refresh_duration_seconds",
			Help:    "Time taken to refresh the prison list",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		},
		[]string{"status"},
	)

	// PrisonsLoaded tracks the number of prisons offered for selection
	PrisonsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prisonfacets_prisons_loaded",
			Help: "Number of prisons offered for selection",
		},
	)

	// PrisonCacheTotal counts prison list cache lookups
	PrisonCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prisonfacets_prison_cache_total",
			Help: "Total number of prison list cache lookups",
		},
		[]string{"result"}, // result: hit, miss
	)

	// ErrorsTotal counts total number of errors
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prisonfacets_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordSelectorChange records a selector change
func RecordSelectorChange(facet, value string) {
	action := "set"
	if value == "" {
		action = "clear"
	}
	SelectorChangesTotal.WithLabelValues(facet, action).Inc()
}

// RecordModeTransition records a normal/no-matches transition
func RecordModeTransition(to string) {
	ModeTransitionsTotal.WithLabelValues(to).Inc()
}

// RecordProjection records a completed projection
func RecordProjection(operation string, eligible int, duration float64) {
	ProjectionDuration.WithLabelValues(operation).Observe(duration)
	EligibleRecords.Observe(float64(eligible))
}

// RecordSession records a session lifecycle event
func RecordSession(event string) {
	SessionsTotal.WithLabelValues(event).Inc()
}

// RecordCatalogRefresh records a prison list refresh
func RecordCatalogRefresh(status string, duration float64) {
	CatalogRefreshTotal.WithLabelValues(status).Inc()
	CatalogRefreshDuration.WithLabelValues(status).Observe(duration)
}

// RecordPrisonCache records a prison list cache lookup
func RecordPrisonCache(result string) {
	PrisonCacheTotal.WithLabelValues(result).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
