// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probeserver

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors a Server updates. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Requests          *prometheus.CounterVec
	GateWait          prometheus.Histogram
	GateTimeouts      prometheus.Counter
	ActiveConnections prometheus.Gauge
	DroppedReads      prometheus.Counter
	ProbePanics       prometheus.Counter
}

// NewMetrics creates unregistered collectors under the "probed"
// namespace. Call Register to expose them.
func NewMetrics() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "probed",
				Subsystem: "server",
				Name:      "requests_total",
				Help:      "Probe requests answered, by operation and status code",
			},
			[]string{"operation", "code"},
		),
		GateWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "probed",
				Subsystem: "gate",
				Name:      "wait_seconds",
				Help:      "Time spent waiting for the probe access gate",
				Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
			},
		),
		GateTimeouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "probed",
				Subsystem: "gate",
				Name:      "timeouts_total",
				Help:      "Requests answered 503 because the access gate stayed busy",
			},
		),
		ActiveConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "probed",
				Subsystem: "server",
				Name:      "active_connections",
				Help:      "Connections currently being served",
			},
		),
		DroppedReads: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "probed",
				Subsystem: "server",
				Name:      "dropped_connections_total",
				Help:      "Connections closed without a response because the request could not be read",
			},
		),
		ProbePanics: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "probed",
				Subsystem: "probe",
				Name:      "panics_total",
				Help:      "Probe reads or writes that panicked",
			},
		),
	}
}

// Collectors returns every collector in m.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Requests, m.GateWait, m.GateTimeouts, m.ActiveConnections, m.DroppedReads, m.ProbePanics,
	}
}

// Register adds every collector to registerer.
func (m *Metrics) Register(registerer prometheus.Registerer) error {
	for _, collector := range m.Collectors() {
		if err := registerer.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) observeRequest(operation string, status int) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
}

func (m *Metrics) observeGateWait(wait time.Duration) {
	if m == nil {
		return
	}
	m.GateWait.Observe(wait.Seconds())
}

func (m *Metrics) gateTimedOut() {
	if m == nil {
		return
	}
	m.GateTimeouts.Inc()
}

func (m *Metrics) connectionOpened() {
	if m == nil {
		return
	}
	m.ActiveConnections.Inc()
}

func (m *Metrics) connectionClosed() {
	if m == nil {
		return
	}
	m.ActiveConnections.Dec()
}

func (m *Metrics) readDropped() {
	if m == nil {
		return
	}
	m.DroppedReads.Inc()
}

func (m *Metrics) probePanicked() {
	if m == nil {
		return
	}
	m.ProbePanics.Inc()
}
