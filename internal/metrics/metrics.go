// Package metrics exposes the Prometheus counters and gauges aesdsocketd
// reports on its metrics endpoint.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ConnectionsTotal counts accepted TCP connections.
	ConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aesdsocketd_connections_total",
		Help: "Total number of accepted TCP connections.",
	})

	// ActiveConnections tracks currently open connections.
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "aesdsocketd_active_connections",
		Help: "Number of currently open TCP connections.",
	})

	// EntriesTotal counts entries committed to the log.
	EntriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aesdsocketd_entries_total",
		Help: "Total number of entries committed to the circular log.",
	})

	// EntriesEvictedTotal counts entries evicted by ring overflow.
	EntriesEvictedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aesdsocketd_entries_evicted_total",
		Help: "Total number of entries evicted from the circular log.",
	})

	// BytesIngestedTotal counts bytes ingested across all connections.
	BytesIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "aesdsocketd_bytes_ingested_total",
		Help: "Total number of bytes ingested into the log, including in-progress entries.",
	})

	// RingTotalBytes tracks the circular log's resident byte count.
	RingTotalBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "aesdsocketd_ring_total_bytes",
		Help: "Sum of entry lengths currently resident in the circular log.",
	})

	// ControlCommandsTotal counts control commands by outcome.
	ControlCommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aesdsocketd_control_commands_total",
		Help: "Total number of decoded control commands by result.",
	}, []string{"result"})
)

// MustRegister registers every collector in this package against reg. It
// panics on duplicate registration, matching prometheus.MustRegister's
// contract, and is expected to be called exactly once at process start.
func MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(
		ConnectionsTotal,
		ActiveConnections,
		EntriesTotal,
		EntriesEvictedTotal,
		BytesIngestedTotal,
		RingTotalBytes,
		ControlCommandsTotal,
	)
}
