// Package connect implements the reconnecting TCP Connect client: the
// component that owns one outbound socket for a handler, including
// buffering, flush, drop, and reconnect behavior.
package connect

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/relaydaemon/ffwdd/internal/bus"
	log "github.com/relaydaemon/ffwdd/internal/log"
	"github.com/relaydaemon/ffwdd/internal/loop"
	"github.com/relaydaemon/ffwdd/internal/model"
	"github.com/relaydaemon/ffwdd/internal/plugin"
	"github.com/relaydaemon/ffwdd/internal/pluginid"
	"github.com/relaydaemon/ffwdd/internal/promreport"
	"github.com/relaydaemon/ffwdd/internal/reporter"
	"github.com/relaydaemon/ffwdd/internal/transport/registry"
	"github.com/relaydaemon/ffwdd/internal/wire"
)

const (
	DefaultFlushPeriod   = 10 * time.Second
	DefaultOutboundLimit = 1 << 20 // 1 MiB

	initialReconnectDelay = 2 * time.Second
	maxReconnectDelay     = 5 * time.Minute
)

type state int

const (
	stateDisconnected state = iota
	stateConnecting
	stateConnected
	stateClosing
)

// Config carries the construction inputs spec.md §4.G names explicitly.
type Config struct {
	Network       string // "tcp", "udp", or "unix"; defaults to "tcp"
	Host          string
	Port          int
	Path          string // unix socket path, used when Network is "unix"
	Handler       wire.Handler
	FlushPeriod   time.Duration // 0 = streaming mode
	OutboundLimit int64         // bytes; must be > 0
}

func (c Config) network() string {
	if c.Network == "" {
		return "tcp"
	}
	return c.Network
}

func (c Config) withDefaults() Config {
	if c.OutboundLimit <= 0 {
		c.OutboundLimit = DefaultOutboundLimit
	}
	return c
}

func (c Config) addr() string {
	if c.network() == "unix" {
		return c.Path
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Client owns one outbound TCP socket: connect/reconnect, the writable
// predicate, streaming or buffered delivery, and drop accounting. All state
// below is touched only from callbacks the owning Loop runs, so it needs no
// locking despite being fed by goroutines doing the actual socket I/O.
type Client struct {
	cfg  Config
	log  log.Logger
	loop *loop.Loop
	dial func(ctx context.Context, addr string) (net.Conn, error)

	label string
	id    string

	state               state
	closing             bool
	open                bool
	reconnectDelay      time.Duration
	reconnectTimer      *time.Timer
	reconnectGeneration int // invalidates a timer fired after a newer one was armed

	conn                *asyncWriter
	outboundBytesQueued int64

	eventBuf  []model.Event
	metricBuf []model.Metric
	flushStop chan struct{}
	flushDone chan struct{}

	eventSub, metricSub bus.Subscription

	counts *reporter.Counters
}

// New constructs a Client. logger and l must not be nil.
func New(cfg Config, logger log.Logger, l *loop.Loop) *Client {
	cfg = cfg.withDefaults()
	network := cfg.network()
	return &Client{
		cfg:            cfg,
		log:            logger,
		loop:           l,
		dial:           dialNetwork(network),
		label:          fmt.Sprintf("connect %s://%s", network, cfg.addr()),
		id:             pluginid.New(),
		reconnectDelay: initialReconnectDelay,
		counts:         reporter.NewCounters(),
	}
}

// dialNetwork returns a dial func bound to network ("tcp", "udp", or
// "unix"); all three are plain net.Dialer.DialContext calls with a
// connected socket, so only the network name varies.
func dialNetwork(network string) func(ctx context.Context, addr string) (net.Conn, error) {
	return func(ctx context.Context, addr string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, network, addr)
	}
}

// Label and Counts satisfy reporter.Reportable.
func (c *Client) Label() string              { return c.label }
func (c *Client) Counts() *reporter.Counters { return c.counts }

// Start subscribes to output (streaming mode) or arms buffering (buffered
// mode) and initiates the first connect attempt. It registers a stopping
// hook on output so the client closes its socket cleanly on shutdown.
func (c *Client) Start(output *bus.PluginChannel) {
	if c.cfg.FlushPeriod == 0 {
		c.eventSub = output.Event.Subscribe(c.handleEvent)
		c.metricSub = output.Metric.Subscribe(c.handleMetric)
	} else {
		c.eventSub = output.Event.Subscribe(func(e model.Event) {
			c.eventBuf = append(c.eventBuf, e)
		})
		c.metricSub = output.Metric.Subscribe(func(m model.Metric) {
			c.metricBuf = append(c.metricBuf, m)
		})
		c.armFlushTimer()
	}
	output.Stopping(c.Close)

	c.state = stateConnecting
	promreport.ConnectionState.WithLabelValues(c.label).Set(promreport.ConnectionStateConnecting)
	c.connectAsync()
}

func (c *Client) addr() string { return c.cfg.addr() }

func (c *Client) connectAsync() {
	go func() {
		conn, err := c.dial(context.Background(), c.addr())
		c.loop.Go(func() {
			if err != nil {
				c.onConnectFailed(err)
				return
			}
			c.onConnected(conn)
		})
	}()
}

func (c *Client) onConnected(conn net.Conn) {
	if c.closing {
		conn.Close()
		return
	}
	c.state = stateConnected
	c.open = true
	c.cancelReconnectTimer()
	c.reconnectDelay = initialReconnectDelay
	promreport.ConnectionState.WithLabelValues(c.label).Set(promreport.ConnectionStateConnected)

	c.conn = newAsyncWriter(conn, c.loop, c.onWriteError)
	go c.watchForClose(conn)

	c.log.WithField("id", c.id).Infof("Connected %s://%s", c.cfg.network(), c.addr())
}

// watchForClose detects a peer-closed or broken socket by blocking on a
// one-byte read; any read error routes back to unbind on the loop.
func (c *Client) watchForClose(conn net.Conn) {
	buf := make([]byte, 1)
	for {
		conn.SetReadDeadline(time.Time{})
		n, err := conn.Read(buf)
		if err != nil {
			c.loop.Go(func() { c.unbind(conn, err) })
			return
		}
		if n > 0 {
			// Outbound sockets aren't expected to receive application data;
			// discard and keep watching.
			continue
		}
	}
}

func (c *Client) onConnectFailed(err error) {
	if c.closing {
		return
	}
	c.state = stateDisconnected
	c.open = false
	promreport.ConnectionState.WithLabelValues(c.label).Set(promreport.ConnectionStateDisconnected)
	c.log.WithError(err).Warnf("Failed to connect %s://%s", c.cfg.network(), c.addr())
	c.scheduleReconnect()
}

func (c *Client) onWriteError(err error) {
	if c.conn == nil {
		return
	}
	conn := c.conn.raw
	c.unbind(conn, err)
}

// unbind handles both a peer-initiated close and a local write error; it is
// always invoked on the loop.
func (c *Client) unbind(conn net.Conn, reason error) {
	if c.conn == nil || c.conn.raw != conn {
		return // stale notification from an already-replaced connection
	}
	c.open = false
	c.state = stateDisconnected
	c.conn.Close()
	c.conn = nil
	c.outboundBytesQueued = 0
	promreport.OutboundBytesQueued.WithLabelValues(c.label).Set(0)

	if c.closing {
		promreport.ConnectionState.WithLabelValues(c.label).Set(promreport.ConnectionStateClosing)
		c.log.WithField("id", c.id).Info("Disconnected")
		return
	}
	promreport.ConnectionState.WithLabelValues(c.label).Set(promreport.ConnectionStateDisconnected)
	c.log.WithError(reason).Warnf("Disconnected, reconnecting in %s", c.reconnectDelay)
	c.scheduleReconnect()
}

func (c *Client) scheduleReconnect() {
	c.cancelReconnectTimer()
	delay := c.reconnectDelay
	gen := c.reconnectGeneration
	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.loop.Go(func() { c.onReconnectFire(gen) })
	})
}

func (c *Client) onReconnectFire(gen int) {
	if gen != c.reconnectGeneration || c.closing {
		return
	}
	c.reconnectDelay *= 2
	if c.reconnectDelay > maxReconnectDelay {
		c.reconnectDelay = maxReconnectDelay
	}
	c.state = stateConnecting
	promreport.ConnectionState.WithLabelValues(c.label).Set(promreport.ConnectionStateConnecting)
	promreport.ReconnectsTotal.WithLabelValues(c.label).Inc()
	c.connectAsync()
}

func (c *Client) cancelReconnectTimer() {
	c.reconnectGeneration++
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}

// writable matches the spec's predicate exactly: open and under the
// outbound byte budget.
func (c *Client) writable() bool {
	return c.open && c.outboundBytesQueued < c.cfg.OutboundLimit
}

func (c *Client) handleEvent(e model.Event) {
	if !c.writable() {
		c.counts.Increment("dropped_events", 1)
		promreport.EventsTotal.WithLabelValues(c.label, "event", "dropped").Inc()
		return
	}
	payload, err := c.cfg.Handler.SerializeEvent(e)
	if err != nil {
		c.log.WithError(err).Error("Failed to handle event")
		return
	}
	c.write(payload)
	c.counts.Increment("sent_events", 1)
	promreport.EventsTotal.WithLabelValues(c.label, "event", "sent").Inc()
}

func (c *Client) handleMetric(m model.Metric) {
	if !c.writable() {
		c.counts.Increment("dropped_metrics", 1)
		promreport.EventsTotal.WithLabelValues(c.label, "metric", "dropped").Inc()
		return
	}
	payload, err := c.cfg.Handler.SerializeMetric(m)
	if err != nil {
		c.log.WithError(err).Error("Failed to handle metric")
		return
	}
	c.write(payload)
	c.counts.Increment("sent_metrics", 1)
	promreport.EventsTotal.WithLabelValues(c.label, "metric", "sent").Inc()
}

func (c *Client) write(payload []byte) {
	c.outboundBytesQueued += int64(len(payload))
	promreport.OutboundBytesQueued.WithLabelValues(c.label).Set(float64(c.outboundBytesQueued))
	n := len(payload)
	c.conn.Write(payload, func() {
		c.outboundBytesQueued -= int64(n)
		promreport.OutboundBytesQueued.WithLabelValues(c.label).Set(float64(c.outboundBytesQueued))
	})
}

func (c *Client) armFlushTimer() {
	c.flushStop = make(chan struct{})
	c.flushDone = make(chan struct{})
	go func() {
		defer close(c.flushDone)
		ticker := time.NewTicker(c.cfg.FlushPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-c.flushStop:
				return
			case <-ticker.C:
				c.loop.Go(c.flush)
			}
		}
	}()
}

// flush is the buffered-mode periodic drain. Buffers are cleared on every
// invocation regardless of outcome.
func (c *Client) flush() {
	if len(c.eventBuf) == 0 && len(c.metricBuf) == 0 {
		return
	}
	events, metrics := c.eventBuf, c.metricBuf
	defer func() {
		c.eventBuf = nil
		c.metricBuf = nil
	}()

	if !c.writable() {
		c.counts.Increment("dropped_events", int64(len(events)))
		c.counts.Increment("dropped_metrics", int64(len(metrics)))
		promreport.EventsTotal.WithLabelValues(c.label, "event", "dropped").Add(float64(len(events)))
		promreport.EventsTotal.WithLabelValues(c.label, "metric", "dropped").Add(float64(len(metrics)))
		return
	}

	payload, err := c.cfg.Handler.SerializeAll(events, metrics)
	if err != nil {
		c.log.WithError(err).Error("Failed to flush")
		c.counts.Increment("failed_flushes", 1)
		return
	}
	c.write(payload)
	c.counts.Increment("sent_events", int64(len(events)))
	c.counts.Increment("sent_metrics", int64(len(metrics)))
	promreport.EventsTotal.WithLabelValues(c.label, "event", "sent").Add(float64(len(events)))
	promreport.EventsTotal.WithLabelValues(c.label, "metric", "sent").Add(float64(len(metrics)))
}

// Close is idempotent: it marks the client closing, tears down the socket
// and any armed reconnect timer, and suppresses all future reconnects.
func (c *Client) Close() {
	if c.closing {
		return
	}
	c.closing = true
	c.state = stateClosing
	c.cancelReconnectTimer()
	if c.flushStop != nil {
		close(c.flushStop)
		<-c.flushDone
	}
	if c.eventSub != nil {
		c.eventSub.Unsubscribe()
	}
	if c.metricSub != nil {
		c.metricSub.Unsubscribe()
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.open = false
}

func stringOpt(opts map[string]interface{}, key string) string {
	v, _ := opts[key].(string)
	return v
}

func intOpt(opts map[string]interface{}, key string) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// registerProtocol builds the registry.ConnectFactory for one protocol tag,
// the outbound counterpart of bind's registerProtocol. The "unix+tcp" tag
// maps onto a unix-domain stream socket.
func registerProtocol(network string) registry.ConnectFactory {
	return func(opts map[string]interface{}, handler wire.Handler) (interface{}, error) {
		l := plugin.Loop()
		if l == nil {
			return nil, fmt.Errorf("connect: core loop not initialized")
		}
		flushPeriod := DefaultFlushPeriod
		if _, ok := opts["flush_period"]; ok {
			flushPeriod = time.Duration(intOpt(opts, "flush_period")) * time.Second
		}
		cfg := Config{
			Network:       network,
			Host:          stringOpt(opts, "host"),
			Port:          intOpt(opts, "port"),
			Path:          stringOpt(opts, "path"),
			Handler:       handler,
			FlushPeriod:   flushPeriod,
			OutboundLimit: int64(intOpt(opts, "outbound_limit")),
		}
		return New(cfg, log.GetLogger(), l), nil
	}
}

func init() {
	registry.RegisterConnect("tcp", registerProtocol("tcp"))
	registry.RegisterConnect("udp", registerProtocol("udp"))
	registry.RegisterConnect("unix+tcp", registerProtocol("unix"))
}
