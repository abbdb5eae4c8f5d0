package authevents

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teleinformatics/campus-core/internal/auth"
)

// MetricsSink counts events by kind and reason.
type MetricsSink struct {
	events *prometheus.CounterVec
}

// NewMetricsSink creates the campus_auth_events_total counter and
// registers it with reg.
func NewMetricsSink(reg prometheus.Registerer) (*MetricsSink, error) {
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campus_auth_events_total",
			Help: "Authentication outcomes by kind and reason.",
		},
		[]string{"kind", "reason"},
	)
	if err := reg.Register(events); err != nil {
		return nil, err
	}
	return &MetricsSink{events: events}, nil
}

// Record increments the counter for ev.
func (s *MetricsSink) Record(_ context.Context, ev auth.Event) {
	s.events.WithLabelValues(string(ev.Kind), ev.Reason).Inc()
}

// Counter exposes the underlying vector for tests and dashboards.
func (s *MetricsSink) Counter() *prometheus.CounterVec {
	return s.events
}
