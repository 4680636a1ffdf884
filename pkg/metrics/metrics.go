// Package metrics exposes Prometheus collectors for the lanhub server.
//
// A nil *Metrics is valid and records nothing, so components take a
// *Metrics and never need to check whether metrics are enabled.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all lanhub collectors.
type Metrics struct {
	registry *prometheus.Registry

	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	loggedInUsers     prometheus.Gauge
	loginsTotal       *prometheus.CounterVec
	messagesFanned    prometheus.Counter
	transfersTotal    *prometheus.CounterVec
	transferBytes     *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry, including the
// standard Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lanhub", Name: "connections_active",
			Help: "Currently open control connections.",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lanhub", Name: "connections_total",
			Help: "Control connections accepted since start.",
		}),
		loggedInUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lanhub", Name: "logged_in_users",
			Help: "Users currently bound to a live connection.",
		}),
		loginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lanhub", Name: "logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		messagesFanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lanhub", Name: "messages_fanned_out_total",
			Help: "Messages delivered to worker inboxes.",
		}),
		transfersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lanhub", Name: "transfers_total",
			Help: "File transfers by direction and outcome.",
		}, []string{"direction", "outcome"}),
		transferBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lanhub", Name: "transfer_bytes_total",
			Help: "Bytes moved over file-transfer side channels.",
		}, []string{"direction"}),
	}
	reg.MustRegister(
		m.connectionsActive, m.connectionsTotal, m.loggedInUsers,
		m.loginsTotal, m.messagesFanned, m.transfersTotal, m.transferBytes,
	)
	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs a metrics HTTP server on addr until it fails. Intended to be
// started on its own goroutine.
func (m *Metrics) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func (m *Metrics) ConnectionAccepted() {
	if m == nil {
		return
	}
	m.connectionsTotal.Inc()
	m.connectionsActive.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connectionsActive.Dec()
}

func (m *Metrics) SetLoggedInUsers(n int) {
	if m == nil {
		return
	}
	m.loggedInUsers.Set(float64(n))
}

// LoginAttempt records a login by outcome ("success", "bad_user",
// "bad_password").
func (m *Metrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.loginsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) MessageFanned(n int) {
	if m == nil {
		return
	}
	m.messagesFanned.Add(float64(n))
}

// TransferDone records a finished transfer. direction is "send" or "recv";
// outcome is "ok", "timeout", or "error".
func (m *Metrics) TransferDone(direction, outcome string, bytes int64) {
	if m == nil {
		return
	}
	m.transfersTotal.WithLabelValues(direction, outcome).Inc()
	if bytes > 0 {
		m.transferBytes.WithLabelValues(direction).Add(float64(bytes))
	}
}
