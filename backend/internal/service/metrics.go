package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	moderationChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "msgboard",
			Name:      "moderation_checks_total",
			Help:      "Delete attempts by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	reportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "msgboard",
			Name:      "reports_total",
			Help:      "Accepted reports by target kind",
		},
		[]string{"kind"},
	)
)

func recordModeration(action string, outcome Outcome) {
	moderationChecksTotal.WithLabelValues(action, outcome.String()).Inc()
}

func recordReport(kind string) {
	reportsTotal.WithLabelValues(kind).Inc()
}
