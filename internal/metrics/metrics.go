package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "medihelp"
	subsystem = "client"
)

// Metrics holds the client side Prometheus collectors. A nil *Metrics is valid
// and records nothing, so components can take it as an optional dependency.
type Metrics struct {
	RequestAttempts  *prometheus.CounterVec
	RequestRetries   *prometheus.CounterVec
	SessionRefreshes *prometheus.CounterVec
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_attempts_total",
			Help:      "HTTP attempts made by the request executor, by outcome.",
		}, []string{"outcome"}),
		RequestRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_retries_total",
			Help:      "Retries scheduled by the request executor, by reason.",
		}, []string{"reason"}),
		SessionRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "session_refreshes_total",
			Help:      "Access token refreshes performed by the session manager, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.RequestAttempts, m.RequestRetries, m.SessionRefreshes)
	return m
}

func (m *Metrics) Attempt(outcome string) {
	if m == nil {
		return
	}
	m.RequestAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Retry(reason string) {
	if m == nil {
		return
	}
	m.RequestRetries.WithLabelValues(reason).Inc()
}

func (m *Metrics) Refresh(result string) {
	if m == nil {
		return
	}
	m.SessionRefreshes.WithLabelValues(result).Inc()
}
