// ABOUTME: Prometheus export of latency corrector decisions
// ABOUTME: Implements latency.Reporter against a private registry
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Resonate-Protocol/resonate-latency/pkg/latency"
)

const (
	namespace = "resonate"
	subsystem = "latency"
)

var phases = []latency.Phase{latency.PhaseFrozen, latency.PhaseWarming, latency.PhaseDynamic}

// Reporter records corrector decisions as Prometheus metrics.
type Reporter struct {
	registry *prometheus.Registry

	corrected   prometheus.Gauge
	estimate    prometheus.Gauge
	raw         prometheus.Gauge
	hint        prometheus.Gauge
	updates     prometheus.Counter
	rateLimited prometheus.Counter
	phase       *prometheus.GaugeVec

	lastUpdates uint64
}

// NewReporter registers the latency metrics on a fresh registry.
func NewReporter() *Reporter {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Reporter{
		registry: reg,
		corrected: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "corrected_seconds",
			Help:      "Output latency handed to the renderer",
		}),
		estimate: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "estimate_seconds",
			Help:      "Smoothed estimator output before correction policy",
		}),
		raw: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "raw_seconds",
			Help:      "Last accepted raw latency reading",
		}),
		hint: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "hint_seconds",
			Help:      "Device latency hint the session started from",
		}),
		updates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "updates_total",
			Help:      "Raw readings accepted by the estimator",
		}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rate_limited_total",
			Help:      "Corrections capped by the maximum change rate",
		}),
		phase: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "phase",
			Help:      "Current corrector phase (1 for the active phase)",
		}, []string{"phase"}),
	}
}

// Report implements latency.Reporter.
func (r *Reporter) Report(d latency.Decision) {
	r.corrected.Set(d.Seconds)
	r.estimate.Set(d.EstimateSecs)
	if d.RawSecs > 0 {
		r.raw.Set(d.RawSecs)
	}
	// The estimator was reset; its count starts over.
	if d.UpdateCount < r.lastUpdates {
		r.lastUpdates = 0
	}
	if d.UpdateCount > r.lastUpdates {
		r.updates.Add(float64(d.UpdateCount - r.lastUpdates))
		r.lastUpdates = d.UpdateCount
	}
	if d.RateLimited {
		r.rateLimited.Inc()
	}
	for _, p := range phases {
		v := 0.0
		if p == d.Phase {
			v = 1
		}
		r.phase.WithLabelValues(p.String()).Set(v)
	}
}

// SetHint records the starting hint.
func (r *Reporter) SetHint(h *latency.Hint) {
	if h == nil {
		r.hint.Set(0)
		return
	}
	r.hint.Set(h.Seconds)
}

// Registry exposes the underlying registry.
func (r *Reporter) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Reporter) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
