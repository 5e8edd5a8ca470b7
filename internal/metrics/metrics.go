// Package metrics holds the Prometheus collectors a shopcheck run records.
// Runs are short-lived, so collectors are written to a node-exporter
// textfile at exit rather than served.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Step outcomes
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Consent outcomes
const (
	ConsentAccepted = "accepted"
	ConsentAbsent   = "absent"
)

// Metrics bundles Prometheus collectors for scenario runs and crawls.
type Metrics struct {
	Registry            *prometheus.Registry
	StepsTotal          *prometheus.CounterVec
	StepDuration        *prometheus.HistogramVec
	ConsentPopupsTotal  *prometheus.CounterVec
	LineMismatchesTotal prometheus.Counter
	CatalogItemsTotal   prometheus.Counter
	CatalogErrorsTotal  *prometheus.CounterVec
	CacheHitsTotal      prometheus.Counter
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	steps := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopcheck_steps_total",
			Help: "Total scenario steps run, by step and outcome.",
		},
		[]string{"step", "outcome"},
	)
	stepDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopcheck_step_duration_seconds",
			Help:    "Wall time of scenario steps.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step"},
	)
	consent := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopcheck_consent_popups_total",
			Help: "Consent overlays seen while loading pages, by outcome.",
		},
		[]string{"outcome"},
	)
	mismatches := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shopcheck_line_total_mismatches_total",
			Help: "Cart lines whose total differed from price times quantity.",
		},
	)
	items := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shopcheck_catalog_items_total",
			Help: "Products collected by the catalog crawler.",
		},
	)
	crawlErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopcheck_catalog_errors_total",
			Help: "Catalog crawler errors by type.",
		},
		[]string{"error_type"},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shopcheck_catalog_cache_hits_total",
			Help: "Detail pages served from the crawler cache.",
		},
	)

	registry.MustRegister(steps, stepDuration, consent, mismatches, items, crawlErrors, cacheHits)

	return &Metrics{
		Registry:            registry,
		StepsTotal:          steps,
		StepDuration:        stepDuration,
		ConsentPopupsTotal:  consent,
		LineMismatchesTotal: mismatches,
		CatalogItemsTotal:   items,
		CatalogErrorsTotal:  crawlErrors,
		CacheHitsTotal:      cacheHits,
	}
}

// ObserveStep records one finished scenario step.
func (m *Metrics) ObserveStep(step string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.StepsTotal.WithLabelValues(step, outcome).Inc()
	m.StepDuration.WithLabelValues(step).Observe(d.Seconds())
}

// ObserveConsent counts a consent overlay check.
func (m *Metrics) ObserveConsent(accepted bool) {
	if m == nil {
		return
	}
	outcome := ConsentAbsent
	if accepted {
		outcome = ConsentAccepted
	}
	m.ConsentPopupsTotal.WithLabelValues(outcome).Inc()
}

// AddMismatches adds n offending cart lines.
func (m *Metrics) AddMismatches(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LineMismatchesTotal.Add(float64(n))
}

// IncCatalogItems counts one crawled product.
func (m *Metrics) IncCatalogItems() {
	if m == nil {
		return
	}
	m.CatalogItemsTotal.Inc()
}

// IncCatalogError increments the crawler error counter for a type label.
func (m *Metrics) IncCatalogError(errorType string) {
	if m == nil {
		return
	}
	m.CatalogErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncCacheHit counts a detail page served from cache.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

// WriteTextfile writes every collector to path in the text exposition format.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
