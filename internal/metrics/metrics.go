// Package metrics exposes Prometheus instrumentation for the event pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// 1) Inbound volume
	DetectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smartbin_detections_total",
		Help: "Total detection events accepted from the device channel.",
	})

	// 2) Dropped input
	MalformedPayloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smartbin_malformed_payloads_total",
		Help: "Device payloads dropped because they failed validation.",
	})

	// 3) Redelivery suppression
	DuplicateEventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smartbin_duplicate_events_total",
		Help: "Detection events skipped by the dedupe window.",
	})

	// 4) Awards
	AwardsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smartbin_awards_total",
		Help: "Successful credit awards triggered by detections.",
	})

	// 5) Credits volume
	CreditsAwardedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smartbin_credits_awarded_total",
		Help: "Total credit points granted across all awards.",
	})

	// 6) Redemptions
	RedemptionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smartbin_redemptions_total",
		Help: "Successful reward redemptions.",
	})

	// 7) Fan-out audience
	ConnectedObservers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "smartbin_connected_observers",
		Help: "Dashboards currently connected to the broadcast channel.",
	})
)

func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		DetectionsTotal,
		MalformedPayloadsTotal,
		DuplicateEventsTotal,
		AwardsTotal,
		CreditsAwardedTotal,
		RedemptionsTotal,
		ConnectedObservers,
	)
}
