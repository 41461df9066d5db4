// Package carbon implements the reference Carbon line-text wire format:
// "<path> <value> <timestamp>\n" lines, usable as both an inbound Bind
// listener and an outbound Connect client.
package carbon

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	log "github.com/relaydaemon/ffwdd/internal/log"
	"github.com/relaydaemon/ffwdd/internal/model"
	"github.com/relaydaemon/ffwdd/internal/plugin"
	"github.com/relaydaemon/ffwdd/internal/transport/registry"
	"github.com/relaydaemon/ffwdd/internal/wire"
)

// Handler serializes events and metrics as Carbon lines. Events that carry
// no value are skipped, since a Carbon line requires one.
type Handler struct{}

func (Handler) SerializeEvent(e model.Event) ([]byte, error) {
	if !e.HasValue {
		return nil, nil
	}
	return formatLine(e.Key, e.Value, e.Time), nil
}

func (Handler) SerializeMetric(m model.Metric) ([]byte, error) {
	return formatLine(m.Key, m.Value, m.Time), nil
}

func (Handler) SerializeAll(events []model.Event, metrics []model.Metric) ([]byte, error) {
	var buf bytes.Buffer
	for _, e := range events {
		if !e.HasValue {
			continue
		}
		buf.Write(formatLine(e.Key, e.Value, e.Time))
	}
	for _, m := range metrics {
		buf.Write(formatLine(m.Key, m.Value, m.Time))
	}
	return buf.Bytes(), nil
}

func formatLine(path string, value float64, ts int64) []byte {
	return []byte(fmt.Sprintf("%s %s %d\n", path, strconv.FormatFloat(value, 'g', -1, 64), ts))
}

// Connection parses inbound Carbon lines, buffering partial frames across
// Handle calls. A malformed line is dropped with an error log; parsing
// continues with the next line.
type Connection struct {
	sink wire.Sink
	log  log.Logger
	buf  []byte
}

// NewConnectionFactory returns a wire.ConnectionFactory that builds a
// Connection logging through logger.
func NewConnectionFactory(logger log.Logger) wire.ConnectionFactory {
	return func(sink wire.Sink) wire.Connection {
		return &Connection{sink: sink, log: logger}
	}
}

func (c *Connection) Handle(chunk []byte) {
	c.buf = append(c.buf, chunk...)
	for {
		i := bytes.IndexByte(c.buf, '\n')
		if i < 0 {
			return
		}
		line := c.buf[:i]
		c.buf = c.buf[i+1:]
		c.handleLine(line)
	}
}

func (c *Connection) handleLine(line []byte) {
	fields := strings.Fields(string(line))
	if len(fields) != 3 {
		c.log.WithField("line", string(line)).Error("carbon: malformed line")
		return
	}
	path := fields[0]
	value, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		c.log.WithField("line", string(line)).WithError(err).Error("carbon: malformed value")
		return
	}
	ts, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		c.log.WithField("line", string(line)).WithError(err).Error("carbon: malformed timestamp")
		return
	}
	c.sink.PublishMetric(model.Metric{Key: path, Value: value, Time: ts})
}

func (c *Connection) Close() {
	c.buf = nil
}

// protocolOpt reads opts["protocol"], defaulting to "tcp" to match
// config.defaultProtocol for callers (tests, direct construction) that
// don't route through the loaded daemon config.
func protocolOpt(opts map[string]interface{}) string {
	p, _ := opts["protocol"].(string)
	if p == "" {
		return "tcp"
	}
	return p
}

// setupInput resolves opts["protocol"] against the transport registry so
// "tcp", "udp", and "unix+tcp" each bind through their own listener shape,
// instead of always constructing a TCP bind server.
func setupInput(opts map[string]interface{}) (interface{}, error) {
	factory, err := registry.Bind(protocolOpt(opts))
	if err != nil {
		return nil, fmt.Errorf("carbon: %w", err)
	}
	return factory(opts, NewConnectionFactory(log.GetLogger()))
}

// setupOutput is the Connect-side counterpart of setupInput.
func setupOutput(opts map[string]interface{}) (interface{}, error) {
	factory, err := registry.Connect(protocolOpt(opts))
	if err != nil {
		return nil, fmt.Errorf("carbon: %w", err)
	}
	return factory(opts, Handler{})
}

func init() {
	plugin.Discover(plugin.Descriptor{
		Name:        "carbon",
		SetupInput:  setupInput,
		SetupOutput: setupOutput,
	})
}
