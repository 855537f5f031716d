// Package metrics holds the Prometheus collectors for audit sessions and the
// audit pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyeh/claimaudit/internal/model"
)

// Metrics contains the claimaudit collectors.
type Metrics struct {
	registry *prometheus.Registry

	sessionsCreated prometheus.Counter
	auditsFinished  *prometheus.CounterVec
	flags           *prometheus.CounterVec
	phaseDuration   *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry, together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		sessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "claimaudit_sessions_created_total",
			Help: "Total number of audit sessions created",
		}),

		auditsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claimaudit_audits_finished_total",
				Help: "Total number of audits that reached a terminal state",
			},
			[]string{"status"},
		),

		flags: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claimaudit_flags_total",
				Help: "Total number of audit flags raised",
			},
			[]string{"flag_type", "severity"},
		),

		phaseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "claimaudit_pipeline_phase_duration_seconds",
				Help:    "Duration of audit pipeline phases in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 9), // 1ms to ~65s
			},
			[]string{"phase"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// SessionCreated counts a new session.
func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}

// AuditFinished records the terminal status and the flags of a result.
func (m *Metrics) AuditFinished(r *model.AuditResult) {
	if m == nil || r == nil {
		return
	}
	m.auditsFinished.WithLabelValues(string(r.Status)).Inc()
	for _, f := range r.Flags {
		m.flags.WithLabelValues(string(f.FlagType), string(f.Severity)).Inc()
	}
}

// ObservePhase records how long a pipeline phase took.
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}
