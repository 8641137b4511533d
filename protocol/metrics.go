// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package protocol

import (
	"time"

	"github.com/Azure-Samples/MqttApplicationSamples/internal/wallclock"
	"github.com/Azure-Samples/MqttApplicationSamples/protocol/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects counters for command and telemetry channels. A nil
// *Metrics records nothing.
type Metrics struct {
	invocations     *prometheus.CounterVec
	timeouts        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	requests        *prometheus.CounterVec
	handlerFailures *prometheus.CounterVec
	telemetry       *prometheus.CounterVec
}

// Outcome labels.
const (
	outcomeSuccess  = "success"
	outcomeError    = "error"
	outcomeTimeout  = "timeout"
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
)

// NewMetrics creates the channel metrics and registers them with the provided
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		invocations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mqtt_command_invocations_total",
			Help: "Number of command invocations by outcome",
		}, []string{"command", "outcome"}),
		timeouts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mqtt_command_timeouts_total",
			Help: "Number of command invocations that timed out",
		}, []string{"command"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mqtt_command_invoke_duration_seconds",
			Help:    "Time from request publish to response",
			Buckets: prometheus.DefBuckets,
		}, []string{"command"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mqtt_command_requests_total",
			Help: "Number of command requests served by status",
		}, []string{"command", "status"}),
		handlerFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mqtt_command_handler_failures_total",
			Help: "Number of command requests answered with an error",
		}, []string{"command"}),
		telemetry: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mqtt_telemetry_received_total",
			Help: "Number of telemetry messages received by outcome",
		}, []string{"topic_filter", "outcome"}),
	}
}

// Record an invocation; start is when its request was published, or zero if
// it never was.
func (m *Metrics) invoked(command string, start time.Time, err error) {
	if m == nil {
		return
	}
	switch {
	case err == nil:
		m.invocations.WithLabelValues(command, outcomeSuccess).Inc()
		if !start.IsZero() {
			m.latency.WithLabelValues(command).Observe(
				wallclock.Instance.Since(start).Seconds(),
			)
		}
	case errors.IsKind(err, errors.Timeout):
		m.invocations.WithLabelValues(command, outcomeTimeout).Inc()
		m.timeouts.WithLabelValues(command).Inc()
	default:
		m.invocations.WithLabelValues(command, outcomeError).Inc()
	}
}

func (m *Metrics) served(command, status string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(command, status).Inc()
	if status != "200" {
		m.handlerFailures.WithLabelValues(command).Inc()
	}
}

func (m *Metrics) received(filter string, accepted bool) {
	if m == nil {
		return
	}
	outcome := outcomeAccepted
	if !accepted {
		outcome = outcomeRejected
	}
	m.telemetry.WithLabelValues(filter, outcome).Inc()
}
