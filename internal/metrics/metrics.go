// Package metrics exposes Prometheus metrics for long-running campaign
// sends.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for a campaign run
type Metrics struct {
	// Outcome counters
	SentTotal      prometheus.Counter
	WouldSendTotal prometheus.Counter
	FailedTotal    prometheus.Counter
	SkippedTotal   *prometheus.CounterVec // by reason

	// Campaign gauges
	RecipientsTotal prometheus.Gauge
	Processed       prometheus.Gauge

	// Send timing
	SendDurationSeconds prometheus.Histogram

	registry *prometheus.Registry
}

// New creates and registers all campaign metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		SentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blast_messages_sent_total",
			Help: "Total number of messages accepted by the SMTP server",
		}),
		WouldSendTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blast_messages_would_send_total",
			Help: "Total number of messages simulated in dry-run mode",
		}),
		FailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blast_messages_failed_total",
			Help: "Total number of per-recipient failures",
		}),
		SkippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blast_messages_skipped_total",
			Help: "Total number of recipients skipped before sending",
		}, []string{"reason"}),
		RecipientsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "blast_campaign_recipients",
			Help: "Number of recipients in the current campaign",
		}),
		Processed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "blast_campaign_processed",
			Help: "Number of recipients processed so far",
		}),
		SendDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blast_send_duration_seconds",
			Help:    "Time spent transmitting one message",
			Buckets: prometheus.DefBuckets,
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.SentTotal,
		m.WouldSendTotal,
		m.FailedTotal,
		m.SkippedTotal,
		m.RecipientsTotal,
		m.Processed,
		m.SendDurationSeconds,
	)

	return m
}

// Registry returns the metrics registry for HTTP exposure.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
