// Package metrics provides Prometheus instrumentation for doney.
//
// A Recorder owns a private registry so tests and multiple workspaces in one
// process never collide on the global default registry. All methods are safe
// on a nil *Recorder, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "doney"

// Save results.
const (
	SaveWritten = "written"
	SaveSkipped = "skipped"
	SaveFailed  = "error"
)

// Plan request results.
const (
	PlanOK          = "ok"
	PlanUnavailable = "unavailable"
	PlanMalformed   = "malformed"
	PlanInvalid     = "invalid"
)

// Recorder holds every doney metric.
type Recorder struct {
	registry *prometheus.Registry

	// MutationsTotal counts engine mutations.
	// Labels: op (add, update, delete, reorder, reparent, reorder_roots, apply_plan, replace),
	// outcome (applied, unchanged, not-found, cycle-rejected, invalid-title)
	MutationsTotal *prometheus.CounterVec

	// Nodes is the size of the current sequence.
	Nodes prometheus.Gauge

	// SavesTotal counts persistence attempts.
	// Labels: result (written, skipped, error)
	SavesTotal *prometheus.CounterVec

	// SaveDuration measures store writes.
	SaveDuration prometheus.Histogram

	// PlanRequestsTotal counts planner calls.
	// Labels: result (ok, unavailable, malformed, invalid)
	PlanRequestsTotal *prometheus.CounterVec
}

// New creates a Recorder on a fresh registry that also carries the Go runtime
// and process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		MutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Tree mutations by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes",
			Help:      "Number of nodes in the workspace",
		}),
		SavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "saves_total",
				Help:      "Persistence attempts by result",
			},
			[]string{"result"},
		),
		SaveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "save_duration_seconds",
			Help:      "Time spent writing a snapshot to the store",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		PlanRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plan_requests_total",
				Help:      "Planner requests by result",
			},
			[]string{"result"},
		),
	}

	r.registry.MustRegister(
		r.MutationsTotal,
		r.Nodes,
		r.SavesTotal,
		r.SaveDuration,
		r.PlanRequestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry returns the private registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Mutation records one mutation and its outcome.
func (r *Recorder) Mutation(op, outcome string) {
	if r == nil {
		return
	}
	r.MutationsTotal.WithLabelValues(op, outcome).Inc()
}

// SetNodes records the current sequence length.
func (r *Recorder) SetNodes(n int) {
	if r == nil {
		return
	}
	r.Nodes.Set(float64(n))
}

// Save records one persistence attempt. d is only observed for writes.
func (r *Recorder) Save(result string, d time.Duration) {
	if r == nil {
		return
	}
	r.SavesTotal.WithLabelValues(result).Inc()
	if result == SaveWritten {
		r.SaveDuration.Observe(d.Seconds())
	}
}

// Plan records one planner request.
func (r *Recorder) Plan(result string) {
	if r == nil {
		return
	}
	r.PlanRequestsTotal.WithLabelValues(result).Inc()
}
