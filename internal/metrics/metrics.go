package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SendsTotal tracks send attempts by outcome (delivered/failed)
	SendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pushgate_sends_total",
			Help: "Total number of send attempts",
		},
		[]string{"outcome"},
	)

	// SendFailuresTotal tracks classified failures by kind tag
	SendFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pushgate_send_failures_total",
			Help: "Total number of classified send failures",
		},
		[]string{"kind"},
	)

	// RejectionsTotal tracks gateway rejections by reason
	RejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pushgate_rejections_total",
			Help: "Total number of gateway rejections",
		},
		[]string{"reason"},
	)

	// SendLatency tracks end-to-end send latency
	SendLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pushgate_send_latency_seconds",
			Help:    "Send latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	// QueueDepth tracks the number of pending jobs
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pushgate_queue_depth",
			Help: "Number of jobs waiting in the pending queue",
		},
	)

	// UnregisteredTokens tracks the size of the feedback store
	UnregisteredTokens = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pushgate_unregistered_tokens",
			Help: "Device tokens the gateway reported as unregistered",
		},
	)
)
