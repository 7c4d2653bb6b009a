// Package metrics exposes the auth counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultSuccess            = "success"
	ResultInvalidCredentials = "invalid_credentials"
	ResultInvalidInput       = "invalid_input"
	ResultConflict           = "conflict"
	ResultError              = "error"
)

// Metrics holds the auth counters.
type Metrics struct {
	LoginAttempts      *prometheus.CounterVec
	TokenVerifications *prometheus.CounterVec
	Registrations      *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the counters and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_attempts_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		TokenVerifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_token_verifications_total",
				Help: "Bearer token verifications by result",
			},
			[]string{"result"},
		),
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_registrations_total",
				Help: "Registrations by result",
			},
			[]string{"result"},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.LoginAttempts,
		m.TokenVerifications,
		m.Registrations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Login(result string)        { m.LoginAttempts.WithLabelValues(result).Inc() }
func (m *Metrics) Verification(result string) { m.TokenVerifications.WithLabelValues(result).Inc() }
func (m *Metrics) Registration(result string) { m.Registrations.WithLabelValues(result).Inc() }

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
