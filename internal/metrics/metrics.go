package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RESTRequestCounter        *prometheus.CounterVec
	RESTRequestRuntimeSummary *prometheus.SummaryVec

	DiscoveryCounter        *prometheus.CounterVec
	DiscoveryRunTimeSummary *prometheus.SummaryVec

	DiscoveryTransitionCounter *prometheus.CounterVec

	XPUQueryCounter *prometheus.CounterVec
)

func init() {
	RESTRequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xpuctl_bmc_requests_total",
			Help: "A counter metric to measure the total count of requests made to BMCs",
		},
		[]string{"method", "code"}, // code is the HTTP status code or 'error' on transport failures
	)

	RESTRequestRuntimeSummary = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "xpuctl_bmc_request_duration_seconds",
			Help: "A summary metric to measure the time spent in requests made to BMCs",
		},
		[]string{"method", "code"},
	)

	DiscoveryCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xpuctl_discovery_total",
			Help: "A counter metric to measure the total count of BMC discoveries by their final state",
		},
		[]string{"vendor", "state"},
	)

	DiscoveryRunTimeSummary = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "xpuctl_discovery_duration_seconds",
			Help: "A summary metric to measure the time spent discovering a BMC",
		},
		[]string{"vendor", "state"},
	)

	DiscoveryTransitionCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xpuctl_discovery_transitions_total",
			Help: "A counter metric to measure the discovery statemachine transitions executed",
		},
		[]string{"vendor", "transition", "result"},
	)

	XPUQueryCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xpuctl_xpu_queries_total",
			Help: "A counter metric to measure the total count of XPU inventory queries, successful and failed",
		},
		[]string{"vendor", "status"},
	)
}

// WriteTextfile writes the registered metrics to filename in the prometheus text format.
//
// The file is intended for the node exporter textfile collector, since xpuctl
// commands are short lived and do not serve a metrics endpoint.
func WriteTextfile(filename string) error {
	if filename == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(filename, prometheus.DefaultGatherer); err != nil {
		return errors.Wrap(err, "error writing metrics textfile")
	}

	return nil
}
