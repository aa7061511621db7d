// Package metrics registers the Prometheus collectors exposed on the
// daemon's loopback-only diagnostic port, parallel to the pprof/metrics
// listener every long-running daemon in this codebase carries.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ScanAttempts counts scan engine attempts, labeled by outcome.
	ScanAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "provisiond_scan_attempts_total",
		Help: "Number of supplicant scan attempts, by outcome.",
	}, []string{"outcome"})

	// APTransitions counts AP bring-up and tear-down events.
	APTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "provisiond_ap_transitions_total",
		Help: "Number of AP bring-up/tear-down transitions, by direction and outcome.",
	}, []string{"direction", "outcome"})

	// CommitOutcomes counts STA connect attempts, labeled by outcome.
	CommitOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "provisiond_commit_outcomes_total",
		Help: "Number of STA connect attempts, by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(ScanAttempts, APTransitions, CommitOutcomes)
}
