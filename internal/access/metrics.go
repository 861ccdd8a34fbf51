package access

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Decision outcomes recorded per guard.
const (
	OutcomeAllowed         = "allowed"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeForbidden       = "forbidden"
	OutcomeNotFound        = "not_found"
	OutcomeBadRequest      = "bad_request"
	OutcomeError           = "error"
)

// Metrics counts authorization decisions.
type Metrics struct {
	Decisions *prometheus.CounterVec
}

// NewMetrics creates the decision counter and registers it on registry.
// A nil registry leaves the counter unregistered.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authorization_decisions_total",
				Help: "Authorization decisions by guard and outcome",
			},
			[]string{"guard", "outcome"},
		),
	}
	if registry != nil {
		registry.MustRegister(m.Decisions)
	}
	return m
}

func (m *Metrics) record(guard, outcome string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(guard, outcome).Inc()
}
