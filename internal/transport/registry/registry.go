// Package registry resolves a protocol tag ("tcp", "udp", "unix+tcp") to its
// bind, connect, and tunnel factories. Registration happens once at process
// startup (each plugin package's init or explicit Register call); after
// that the registry is read-only, matching spec.md §9's "global registries
// become values initialized at process startup and then immutable."
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/relaydaemon/ffwdd/internal/wire"
)

type (
	// BindFactory constructs an inbound listener for a protocol tag, wiring
	// in the plugin's own ConnectionFactory (how to parse the bytes each
	// accepted peer sends).
	BindFactory func(opts map[string]interface{}, newConn wire.ConnectionFactory) (interface{}, error)
	// ConnectFactory constructs an outbound client for a protocol tag,
	// wiring in the plugin's own Handler (how to serialize outbound items).
	ConnectFactory func(opts map[string]interface{}, handler wire.Handler) (interface{}, error)
	// TunnelFactory constructs a tunnel (multiplexed inbound control link).
	TunnelFactory func(opts map[string]interface{}) (interface{}, error)
)

var (
	mu       sync.Mutex
	binds    = make(map[string]BindFactory)
	connects = make(map[string]ConnectFactory)
	tunnels  = make(map[string]TunnelFactory)
)

// RegisterBind registers a bind factory under a protocol tag. It panics on
// a duplicate registration, since that indicates two plugin packages
// claiming the same protocol — a compile-time-detectable bug.
func RegisterBind(protocol string, factory BindFactory) {
	mu.Lock()
	defer mu.Unlock()
	mustRegister(protocol, factory == nil, binds, protocol, "bind")
	binds[protocol] = factory
}

func RegisterConnect(protocol string, factory ConnectFactory) {
	mu.Lock()
	defer mu.Unlock()
	mustRegister(protocol, factory == nil, connects, protocol, "connect")
	connects[protocol] = factory
}

func RegisterTunnel(protocol string, factory TunnelFactory) {
	mu.Lock()
	defer mu.Unlock()
	mustRegister(protocol, factory == nil, tunnels, protocol, "tunnel")
	tunnels[protocol] = factory
}

func mustRegister[F any](protocol string, nilFactory bool, m map[string]F, name, kind string) {
	if protocol == "" {
		panic(fmt.Sprintf("registry: %s protocol tag cannot be empty", kind))
	}
	if nilFactory {
		panic(fmt.Sprintf("registry: %s factory for %q cannot be nil", kind, protocol))
	}
	if _, exists := m[protocol]; exists {
		panic(fmt.Sprintf("registry: %s %q already registered", kind, protocol))
	}
}

var ErrProtocolNotFound = fmt.Errorf("protocol not registered")

func Bind(protocol string) (BindFactory, error) {
	mu.Lock()
	defer mu.Unlock()
	f, ok := binds[protocol]
	if !ok {
		return nil, fmt.Errorf("bind protocol %q: %w", protocol, ErrProtocolNotFound)
	}
	return f, nil
}

func Connect(protocol string) (ConnectFactory, error) {
	mu.Lock()
	defer mu.Unlock()
	f, ok := connects[protocol]
	if !ok {
		return nil, fmt.Errorf("connect protocol %q: %w", protocol, ErrProtocolNotFound)
	}
	return f, nil
}

func Tunnel(protocol string) (TunnelFactory, error) {
	mu.Lock()
	defer mu.Unlock()
	f, ok := tunnels[protocol]
	if !ok {
		return nil, fmt.Errorf("tunnel protocol %q: %w", protocol, ErrProtocolNotFound)
	}
	return f, nil
}

// ListBindProtocols returns every registered bind protocol tag, sorted.
func ListBindProtocols() []string { return sortedKeys(binds) }

// ListConnectProtocols returns every registered connect protocol tag, sorted.
func ListConnectProtocols() []string { return sortedKeys(connects) }

// ListTunnelProtocols returns every registered tunnel protocol tag, sorted.
func ListTunnelProtocols() []string { return sortedKeys(tunnels) }

func sortedKeys[V any](m map[string]V) []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
