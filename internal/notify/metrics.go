package notify

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "album_notify"

// Drop reasons reported by the batches_dropped metric.
const (
	dropLookupFailed = "lookup_failed"
	dropDiscarded    = "discarded"
)

// Collector is a prometheus.Collector that collects metrics about the
// batching engine.
type Collector struct {
	eventsIngested       *prometheus.CounterVec
	batchesFlushed       prometheus.Counter
	batchesDropped       *prometheus.CounterVec
	notificationsCreated prometheus.Counter
	recipientFailures    prometheus.Counter
	staleDeadlines       prometheus.Counter
	pendingBatches       prometheus.Gauge
}

// NewMetricsCollector returns a new Collector.
func NewMetricsCollector() *Collector {
	return &Collector{
		eventsIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "events_ingested_total",
				Help:      "The number of media events ingested.",
			}, []string{"kind"},
		),
		batchesFlushed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "batches_flushed_total",
				Help:      "The number of batches flushed to their recipients.",
			},
		),
		batchesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "batches_dropped_total",
				Help:      "The number of batches dropped without producing notifications.",
			}, []string{"reason"},
		),
		notificationsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "notifications_created_total",
				Help:      "The number of notification records written.",
			},
		),
		recipientFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "recipient_failures_total",
				Help:      "The number of notification writes that failed during fan-out.",
			},
		),
		staleDeadlines: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "stale_deadlines_total",
				Help:      "The number of superseded deadlines skipped by the sweeper.",
			},
		),
		pendingBatches: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "pending_batches",
				Help:      "The number of batches waiting for their deadline.",
			},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.eventsIngested.Describe(ch)
	c.batchesFlushed.Describe(ch)
	c.batchesDropped.Describe(ch)
	c.notificationsCreated.Describe(ch)
	c.recipientFailures.Describe(ch)
	c.staleDeadlines.Describe(ch)
	c.pendingBatches.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.eventsIngested.Collect(ch)
	c.batchesFlushed.Collect(ch)
	c.batchesDropped.Collect(ch)
	c.notificationsCreated.Collect(ch)
	c.recipientFailures.Collect(ch)
	c.staleDeadlines.Collect(ch)
	c.pendingBatches.Collect(ch)
}
