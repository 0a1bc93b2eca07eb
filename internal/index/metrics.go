package index

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// eventsTotal counts document events seen by indexes, by view, event
	// kind and outcome.
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listview_index_events_total",
		Help: "Document events handled by view indexes",
	}, []string{"view", "event", "result"})

	// rowsGauge tracks the current row count per view.
	rowsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "listview_index_rows",
		Help: "Rows currently held by each view index",
	}, []string{"view"})

	// attachDuration tracks full-scan attach latency.
	attachDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "listview_index_attach_duration_seconds",
		Help:    "Time spent scanning the document on attach",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
	}, []string{"view"})
)

const (
	resultAccepted = "accepted"
	resultFiltered = "filtered"
	resultIgnored  = "ignored"
)
