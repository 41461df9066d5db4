// Package promreport exposes the gauges/counters behind the debug/monitor
// hook contract: the reporter aggregator feeds these alongside its
// structured log lines.
package promreport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsTotal counts sent/dropped events and metrics per plugin and outcome.
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffwdd_events_total",
			Help: "Total number of events/metrics processed by a plugin, by outcome",
		},
		[]string{"plugin", "kind", "outcome"},
	)

	// OutboundBytesQueued tracks the current application-level outbound
	// buffer occupancy of a connect plugin.
	OutboundBytesQueued = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ffwdd_outbound_bytes_queued",
			Help: "Bytes enqueued for a connect plugin but not yet handed to the kernel send buffer",
		},
		[]string{"plugin"},
	)

	// ReconnectsTotal counts reconnect attempts per connect plugin.
	ReconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ffwdd_reconnects_total",
			Help: "Total number of reconnect attempts by a connect plugin",
		},
		[]string{"plugin"},
	)

	// ConnectionState tracks current connect plugin state (0=disconnected, 1=connecting, 2=connected, 3=closing).
	ConnectionState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ffwdd_connection_state",
			Help: "Current connection state of a connect plugin",
		},
		[]string{"plugin"},
	)

	// ProcessorCacheSize tracks the current key count of a processor's bounded cache.
	ProcessorCacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ffwdd_processor_cache_size",
			Help: "Current number of keys tracked by a processor's bounded cache",
		},
		[]string{"processor"},
	)
)

// The ConnectionState* values mirror internal/transport/connect's state machine.
const (
	ConnectionStateDisconnected = 0
	ConnectionStateConnecting   = 1
	ConnectionStateConnected    = 2
	ConnectionStateClosing      = 3
)
