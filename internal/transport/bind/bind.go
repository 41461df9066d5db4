// Package bind implements the Bind server: the inbound half of the
// transport core. It accepts connections (or, for "udp", packets) on
// host:port or a unix socket path and instantiates a wire.Connection per
// peer, wrapping the initial listen in the Retrier.
package bind

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"github.com/relaydaemon/ffwdd/internal/bus"
	log "github.com/relaydaemon/ffwdd/internal/log"
	"github.com/relaydaemon/ffwdd/internal/loop"
	"github.com/relaydaemon/ffwdd/internal/model"
	"github.com/relaydaemon/ffwdd/internal/plugin"
	"github.com/relaydaemon/ffwdd/internal/pluginid"
	"github.com/relaydaemon/ffwdd/internal/retrier"
	"github.com/relaydaemon/ffwdd/internal/transport/registry"
	"github.com/relaydaemon/ffwdd/internal/wire"
)

// Config carries the construction inputs for a bind server.
type Config struct {
	Network        string // "tcp", "udp", or "unix"; defaults to "tcp"
	Host           string
	Port           int
	Path           string // unix socket path, used when Network is "unix"
	NewConnection  wire.ConnectionFactory
	MaxConnections int // 0 = unbounded; ignored for "udp"
	BindTimeout    time.Duration
}

func (c Config) network() string {
	if c.Network == "" {
		return "tcp"
	}
	return c.Network
}

// Server accepts inbound peers and hands each one to a Connection. Sockets
// are read on their own goroutines, but every call into a Connection (and
// therefore every channel publish it triggers) is dispatched onto loop so
// input-channel state is only ever touched from one goroutine at a time.
type Server struct {
	cfg  Config
	log  log.Logger
	loop *loop.Loop

	mu         sync.Mutex
	listener   net.Listener
	packetConn net.PacketConn
	udpConn    wire.Connection
	conns      map[net.Conn]wire.Connection
	stopped    bool
}

func New(cfg Config, logger log.Logger, l *loop.Loop) *Server {
	return &Server{cfg: cfg, log: logger, loop: l, conns: make(map[net.Conn]wire.Connection)}
}

func (s *Server) addr() string {
	if s.cfg.network() == "unix" {
		return s.cfg.Path
	}
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Start binds the listening socket, retrying with backoff per the Retrier,
// then begins accepting connections (or packets, for "udp") that feed items
// into the input PluginChannel. It returns once the listener is up; the
// accept/read loop runs in the background until Stop.
func (s *Server) Start(input *bus.PluginChannel, _ *bus.PluginChannel) error {
	if s.cfg.network() == "udp" {
		return s.startPacket(input)
	}
	return s.startStream(input)
}

func (s *Server) startStream(input *bus.PluginChannel) error {
	network := s.cfg.network()
	r := retrier.New(retrier.Config{Timeout: s.cfg.BindTimeout}, s.log)
	err := r.Do(context.Background(), fmt.Sprintf("bind %s://%s", network, s.addr()), func(ctx context.Context, attempt int) error {
		ln, err := net.Listen(network, s.addr())
		if err != nil {
			return err
		}
		if s.cfg.MaxConnections > 0 {
			ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
		}
		s.listener = ln
		return nil
	})
	if err != nil {
		return fmt.Errorf("bind %s://%s: %w", network, s.addr(), err)
	}

	s.log.Infof("Bound %s://%s", network, s.addr())
	input.Stopping(func() { s.Stop() })
	go s.acceptLoop(input)
	return nil
}

// startPacket binds a UDP socket. Datagrams have no connection lifecycle,
// so a single Connection is shared across every inbound packet instead of
// one per peer.
func (s *Server) startPacket(input *bus.PluginChannel) error {
	r := retrier.New(retrier.Config{Timeout: s.cfg.BindTimeout}, s.log)
	err := r.Do(context.Background(), fmt.Sprintf("bind udp://%s", s.addr()), func(ctx context.Context, attempt int) error {
		pc, err := net.ListenPacket("udp", s.addr())
		if err != nil {
			return err
		}
		s.packetConn = pc
		return nil
	})
	if err != nil {
		return fmt.Errorf("bind udp://%s: %w", s.addr(), err)
	}

	s.log.Infof("Bound udp://%s", s.addr())
	connection := s.cfg.NewConnection(inputSink{input})
	s.mu.Lock()
	s.udpConn = connection
	s.mu.Unlock()

	input.Stopping(func() { s.Stop() })
	go s.packetLoop(connection)
	return nil
}

func (s *Server) packetLoop(connection wire.Connection) {
	buf := make([]byte, 64*1024)
	for {
		n, _, err := s.packetConn.ReadFrom(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			s.loop.Go(func() { connection.Handle(chunk) })
		}
		if err != nil {
			s.mu.Lock()
			stopped := s.stopped
			s.mu.Unlock()
			if !stopped {
				s.log.WithError(err).Warn("ReadFrom failed")
			}
			return
		}
	}
}

func (s *Server) acceptLoop(input *bus.PluginChannel) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			stopped := s.stopped
			s.mu.Unlock()
			if stopped {
				return
			}
			s.log.WithError(err).Warn("Accept failed")
			return
		}
		s.handleConn(conn, input)
	}
}

func (s *Server) handleConn(conn net.Conn, input *bus.PluginChannel) {
	connection := s.cfg.NewConnection(inputSink{input})

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conns[conn] = connection
	s.mu.Unlock()

	s.log.WithField("id", pluginid.New()).Infof("Accepted %s://%s", s.cfg.network(), conn.RemoteAddr())

	go func() {
		defer func() {
			s.loop.Go(func() { s.forget(conn, connection) })
		}()
		buf := make([]byte, 64*1024)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				s.loop.Go(func() { connection.Handle(chunk) })
			}
			if err != nil {
				return
			}
		}
	}()
}

func (s *Server) forget(conn net.Conn, connection wire.Connection) {
	connection.Close()
	conn.Close()
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// Stop closes the listener (or packet socket) and every accepted
// connection.
func (s *Server) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.listener != nil {
		s.listener.Close()
	}
	if s.packetConn != nil {
		s.packetConn.Close()
	}
	udpConn := s.udpConn
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	if udpConn != nil {
		udpConn.Close()
	}
	for _, c := range conns {
		c.Close()
	}
}

// inputSink adapts a PluginChannel to wire.Sink.
type inputSink struct {
	pc *bus.PluginChannel
}

func (s inputSink) PublishEvent(e model.Event)   { s.pc.Event.Publish(e) }
func (s inputSink) PublishMetric(m model.Metric) { s.pc.Metric.Publish(m) }

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

// registerProtocol builds the registry.BindFactory for one protocol tag:
// resolve the process-wide loop, flatten opts into a Config, and delegate
// to New. The "unix+tcp" tag maps onto a unix-domain stream socket (the
// "+tcp" names the stream semantics, not an internet transport).
func registerProtocol(network string) registry.BindFactory {
	return func(opts map[string]interface{}, newConn wire.ConnectionFactory) (interface{}, error) {
		l := plugin.Loop()
		if l == nil {
			return nil, fmt.Errorf("bind: core loop not initialized")
		}
		cfg := Config{
			Network:        network,
			Host:           stringOpt(opts, "host"),
			Port:           intOpt(opts, "port"),
			Path:           stringOpt(opts, "path"),
			NewConnection:  newConn,
			MaxConnections: intOpt(opts, "max_connections"),
		}
		return New(cfg, log.GetLogger(), l), nil
	}
}

func init() {
	registry.RegisterBind("tcp", registerProtocol("tcp"))
	registry.RegisterBind("udp", registerProtocol("udp"))
	registry.RegisterBind("unix+tcp", registerProtocol("unix"))
}
