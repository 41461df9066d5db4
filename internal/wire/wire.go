// Package wire defines the contracts that plug concrete wire formats into
// the transport core: Handler serializes outbound events/metrics, Connection
// adapts an inbound byte stream into calls on the input PluginChannel.
package wire

import "github.com/relaydaemon/ffwdd/internal/model"

// Handler serializes one event, one metric, or a full batch into bytes ready
// to write to an outbound socket. Implementations are plugged per protocol
// (e.g. Carbon line-text) and MUST
// be pure — no I/O, no blocking — since they run on the core's single task.
type Handler interface {
	SerializeEvent(e model.Event) ([]byte, error)
	SerializeMetric(m model.Metric) ([]byte, error)
	SerializeAll(events []model.Event, metrics []model.Metric) ([]byte, error)
}

// Sink is where a Connection delivers parsed items: the core input
// PluginChannel in production, a recorder in tests.
type Sink interface {
	PublishEvent(model.Event)
	PublishMetric(model.Metric)
}

// Connection adapts one inbound byte stream (a TCP/UDS peer, a UDP packet
// source) into Sink calls. Handle is called with each chunk read from the
// transport; implementations that frame on newlines or length prefixes are
// expected to buffer partial frames across calls. Close releases any
// buffered state; it never blocks.
type Connection interface {
	Handle(chunk []byte)
	Close()
}

// ConnectionFactory constructs a Connection bound to a given Sink. Stream
// bind servers call this once per accepted peer; a udp bind server calls it
// once and shares the Connection across all packets.
type ConnectionFactory func(sink Sink) Connection
