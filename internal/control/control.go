// Package control implements the control socket: a JSON-line request/response
// protocol over a Unix domain socket exposing the plugin discovery table and
// live statistics; `ffwdd stats` is its CLI client.
package control

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sync"

	log "github.com/relaydaemon/ffwdd/internal/log"
)

// Request is one control-socket call: "plugins" or "stats", no parameters.
type Request struct {
	Method string `json:"method"`
}

// Response mirrors Request: exactly one of Result/Error is set.
type Response struct {
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Handler answers the two control-socket queries.
type Handler interface {
	Plugins() interface{}
	Stats() interface{}
}

// Server accepts control connections on a Unix socket, one JSON request per
// line, one JSON response per line.
type Server struct {
	socketPath string
	handler    Handler
	log        log.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	stopped  bool
}

func NewServer(socketPath string, handler Handler, logger log.Logger) *Server {
	return &Server{socketPath: socketPath, handler: handler, log: logger, conns: make(map[net.Conn]struct{})}
}

// Start binds the socket and begins accepting in the background.
func (s *Server) Start() error {
	if err := os.RemoveAll(s.socketPath); err != nil {
		return fmt.Errorf("control: removing stale socket: %w", err)
	}
	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("control: listening on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		ln.Close()
		return fmt.Errorf("control: setting socket permissions: %w", err)
	}
	s.listener = ln
	s.log.Infof("control socket listening on %s", s.socketPath)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			stopped := s.stopped
			s.mu.Unlock()
			if stopped {
				return
			}
			s.log.WithError(err).Warn("control: accept failed")
			return
		}
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			conn.Close()
			continue
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)
	for scanner.Scan() {
		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			encoder.Encode(Response{Error: fmt.Sprintf("parse error: %v", err)})
			continue
		}
		encoder.Encode(s.dispatch(req))
	}
}

func (s *Server) dispatch(req Request) Response {
	switch req.Method {
	case "plugins":
		return Response{Result: s.handler.Plugins()}
	case "stats":
		return Response{Result: s.handler.Stats()}
	default:
		return Response{Error: fmt.Sprintf("unknown method %q", req.Method)}
	}
}

// Stop closes the listener and every accepted connection.
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
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	os.RemoveAll(s.socketPath)
}
