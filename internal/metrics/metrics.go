// Package metrics exposes the gateway's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the gateway collectors. Created once in main and
// injected where outcomes are observed.
type Metrics struct {
	TurnsTotal       *prometheus.CounterVec
	TurnDuration     *prometheus.HistogramVec
	PinVerifications *prometheus.CounterVec
	SessionEnds      *prometheus.CounterVec
	SafetyVerdicts   *prometheus.CounterVec
	ActivePhoneLocks prometheus.Gauge
}

// New registers the collectors on the default registry
func New() *Metrics {
	return &Metrics{
		TurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pazargate",
			Name:      "turns_total",
			Help:      "Inbound turns by transport and routed intent",
		}, []string{"transport", "intent"}),

		TurnDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pazargate",
			Name:      "turn_duration_seconds",
			Help:      "Wall-clock latency of one turn",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		}, []string{"transport"}),

		PinVerifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pazargate",
			Name:      "pin_verifications_total",
			Help:      "PIN verification attempts by outcome",
		}, []string{"outcome"}),

		SessionEnds: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pazargate",
			Name:      "session_ends_total",
			Help:      "Session terminations by reason",
		}, []string{"reason"}),

		SafetyVerdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pazargate",
			Name:      "safety_verdicts_total",
			Help:      "Image safety verdicts by result and flag type",
		}, []string{"result", "flag_type"}),

		ActivePhoneLocks: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "pazargate",
			Name:      "active_phone_locks",
			Help:      "Phones currently holding a turn lock",
		}),
	}
}

// RecordTurn counts a completed turn and observes its latency
func (m *Metrics) RecordTurn(transport, intent string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(transport, intent).Inc()
	m.TurnDuration.WithLabelValues(transport).Observe(elapsed.Seconds())
}

// RecordPinVerification counts a PIN verify by outcome
func (m *Metrics) RecordPinVerification(outcome string) {
	if m == nil {
		return
	}
	m.PinVerifications.WithLabelValues(outcome).Inc()
}

// RecordSessionEnd counts a session termination by reason
func (m *Metrics) RecordSessionEnd(reason string) {
	if m == nil {
		return
	}
	m.SessionEnds.WithLabelValues(reason).Inc()
}

// RecordSafetyVerdict counts a safety verdict
func (m *Metrics) RecordSafetyVerdict(result, flagType string) {
	if m == nil {
		return
	}
	m.SafetyVerdicts.WithLabelValues(result, flagType).Inc()
}
