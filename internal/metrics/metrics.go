// Package metrics declares the Prometheus collectors of the mapper.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "media_mapper"

var (
	// EventsReceived counts the events handed to the normalizer, by source.
	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_received_total",
		Help:      "The number of media service events received.",
	}, []string{"source"})

	// EventsStored counts the records written, by table kind (alert or history).
	EventsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_stored_total",
		Help:      "The number of event records written.",
	}, []string{"table"})

	// EventsSkipped counts the events that were deliberately not stored in the history table.
	EventsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_skipped_total",
		Help:      "The number of events skipped during normalization.",
	}, []string{"source"})

	// EventErrors counts failures during normalization, by processing stage.
	EventErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_errors_total",
		Help:      "The number of events whose normalization failed.",
	}, []string{"stage"})

	// AlarmUpdates counts subscription state updates applied from alarm state changes.
	AlarmUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alarm_state_updates_total",
		Help:      "The number of alarm subscription state updates.",
	})

	// APIRequests counts REST requests by route template, method and status code.
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "The number of REST API requests served.",
	}, []string{"route", "method", "code"})

	// APIRequestDuration observes REST request latencies by route template.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Time spent serving REST API requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
)
