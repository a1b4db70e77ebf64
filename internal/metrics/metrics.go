// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "spacloud"

var (
	// PollMerges counts polled snapshots by what the status cache did with
	// them: accepted, rejected_offline or rejected_stale.
	PollMerges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_merges_total",
		Help:      "Polled device snapshots by merge outcome.",
	}, []string{"outcome"})

	// PollErrors counts per-device poll failures by stage.
	PollErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_errors_total",
		Help:      "Per-device poll failures by stage (fetch or decode).",
	}, []string{"stage"})

	// Commands counts device commands by name and outcome.
	Commands = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Device commands by name and outcome.",
	}, []string{"command", "outcome"})

	// CloudLogins counts login attempts against the cloud API.
	CloudLogins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cloud_logins_total",
		Help:      "Cloud login attempts by outcome.",
	}, []string{"outcome"})
)

// Command outcome label values.
const (
	OutcomeOK            = "ok"
	OutcomeInvalid       = "invalid"
	OutcomeUnknownDevice = "unknown_device"
	OutcomeWrongType     = "wrong_type"
	OutcomeCloudError    = "cloud_error"
)

// Register installs the counters and the per-device status collector on the
// default registry. Call it once from main.
func Register(src StatusSource) {
	prometheus.MustRegister(PollMerges, PollErrors, Commands, CloudLogins, NewStatusCollector(src))
}
