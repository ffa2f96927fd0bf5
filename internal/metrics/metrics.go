// Package metrics accumulates the controller's counters and gauges and
// exports them in the Prometheus text exposition format.
package metrics

import (
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/corbaltcode/postgres-role-controller/internal/model"
)

// Sink holds the seven metrics the spec names, scoped to a private
// registry so this package never collides with other collectors the
// embedding process might register.
type Sink struct {
	registry *prometheus.Registry

	reconciliationsTotal prometheus.Counter
	lastReconciliation   prometheus.Gauge
	driftTotal           prometheus.Counter
	usersManaged         prometheus.Gauge
	rolesManaged         prometheus.Gauge
	errorsTotal          prometheus.Counter
	lastErrorTimestamp   prometheus.Gauge
}

// New constructs a Sink with all metrics registered.
func New() *Sink {
	reg := prometheus.NewRegistry()
	s := &Sink{
		registry: reg,
		reconciliationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postgres_controller_reconciliations_total",
			Help: "Completed reconciliation cycles.",
		}),
		lastReconciliation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "postgres_controller_last_reconciliation_timestamp",
			Help: "Unix time of the last reconciliation cycle's end.",
		}),
		driftTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postgres_controller_drift_total",
			Help: "Sum of per-cycle drift counts.",
		}),
		usersManaged: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "postgres_controller_users_managed",
			Help: "Size of the desired spec as of the last cycle.",
		}),
		rolesManaged: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "postgres_controller_roles_managed",
			Help: "Size of live_groups as of the last cycle.",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postgres_controller_errors_total",
			Help: "Sum of per-cycle error counts.",
		}),
		lastErrorTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "postgres_controller_last_error_timestamp",
			Help: "Unix time of the last cycle with any error.",
		}),
	}
	reg.MustRegister(
		s.reconciliationsTotal,
		s.lastReconciliation,
		s.driftTotal,
		s.usersManaged,
		s.rolesManaged,
		s.errorsTotal,
		s.lastErrorTimestamp,
	)
	return s
}

// RecordCycle folds one cycle's stats into the sink. usersManaged and
// rolesManaged reflect the post-cycle desired-spec size and live_groups
// size respectively, per the resolved gauge-staleness open question.
func (s *Sink) RecordCycle(stats model.ReconcileStats, usersManaged, rolesManaged int) {
	s.reconciliationsTotal.Inc()
	s.lastReconciliation.Set(float64(stats.End.Unix()))
	s.driftTotal.Add(float64(stats.Drift))
	s.usersManaged.Set(float64(usersManaged))
	s.rolesManaged.Set(float64(rolesManaged))
	s.errorsTotal.Add(float64(stats.Errors))
	if stats.Errors > 0 {
		s.lastErrorTimestamp.Set(float64(stats.End.Unix()))
	}
}

// Handler returns an http.Handler exposing the registry in Prometheus text
// exposition format, for processes that serve metrics over HTTP.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// WritePrometheus writes the registry's current state to w in text
// exposition format, for the on-demand string-retrieval path.
func (s *Sink) WritePrometheus(w io.Writer) error {
	families, err := s.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
