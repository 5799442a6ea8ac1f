// Package metrics exposes the Prometheus collectors playoutd publishes,
// mirroring the teacher's internal/metrics package: one package-level
// var block plus a single Register entry point.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playout",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "playout",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.3, 0.5, 1, 2, 5},
	}, []string{"method", "path"})

	SyncDelta = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "playout",
		Name:      "sync_delta_seconds",
		Help:      "Signed drift of the last emitted clip against its scheduled begin time.",
	})

	DummyFillTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "playout",
		Name:      "dummy_fill_total",
		Help:      "Total number of synthetic filler clips emitted by the iterator.",
	})

	ReloadTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playout",
		Name:      "playlist_reload_total",
		Help:      "Total number of playlist reloads, labelled by source.",
	}, []string{"source"})

	TerminateTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "playout",
		Name:      "terminate_total",
		Help:      "Total number of times the terminate flag was raised due to fatal sync drift.",
	})

	RPCCommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playout",
		Name:      "rpc_commands_total",
		Help:      "Total number of RPC player commands handled, labelled by control and result.",
	}, []string{"control", "result"})

	StateTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "playout",
		Name:      "state_transitions_total",
		Help:      "Total number of iterator state transitions, labelled by from and to state.",
	}, []string{"from", "to"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		SyncDelta,
		DummyFillTotal,
		ReloadTotal,
		TerminateTotal,
		RPCCommandsTotal,
		StateTransitionsTotal,
	)
}
