// Package metrics holds the Prometheus collectors exposed on the keep-alive
// HTTP endpoint.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	FeedbackEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_events_total",
			Help: "Total number of accepted feedback events",
		},
	)

	AggregatesOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_group_aggregates_open",
			Help: "Number of in-flight media-group aggregates",
		},
	)

	ForwardsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forwards_total",
			Help: "Total number of parts forwarded to the curation channel",
		},
	)

	ForwardFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forward_failures_total",
			Help: "Total number of parts that failed to forward",
		},
	)

	WatermarkFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "watermark_failures_total",
			Help: "Total number of parts dropped due to watermark composition failure",
		},
	)
)

// Register registers all collectors with the default registry.
func Register() {
	prometheus.MustRegister(FeedbackEventsTotal)
	prometheus.MustRegister(AggregatesOpen)
	prometheus.MustRegister(ForwardsTotal)
	prometheus.MustRegister(ForwardFailuresTotal)
	prometheus.MustRegister(WatermarkFailuresTotal)
}
