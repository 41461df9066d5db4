// Package plugin implements the plugin loader: discovery, capability
// typing, and validated instantiation of Setup objects for the supervisor
// to invoke. Each plugin package registers a Descriptor from its own init,
// matching spec.md §9's "global registries become values initialized at
// process startup and then immutable."
package plugin

import "sync"

// Capability names one of the three things a plugin can set up.
type Capability string

const (
	CapabilityInput  Capability = "input"
	CapabilityOutput Capability = "output"
	CapabilityTunnel Capability = "tunnel"
)

// SetupFunc builds a concrete bind/connect/tunnel instance from its
// plugin-specific options; the returned value is whatever the corresponding
// internal/transport/* package expects the supervisor to invoke Start on.
type SetupFunc func(opts map[string]interface{}) (interface{}, error)

// Descriptor is what a plugin module inserts into the discovery table on
// registration: its name and whichever of the three setup callables it
// implements.
type Descriptor struct {
	Name        string
	SetupInput  SetupFunc
	SetupOutput SetupFunc
	SetupTunnel SetupFunc
}

// Can reports whether the descriptor implements the given capability.
func (d Descriptor) Can(kind Capability) bool {
	switch kind {
	case CapabilityInput:
		return d.SetupInput != nil
	case CapabilityOutput:
		return d.SetupOutput != nil
	case CapabilityTunnel:
		return d.SetupTunnel != nil
	default:
		return false
	}
}

func (d Descriptor) setupFor(kind Capability) SetupFunc {
	switch kind {
	case CapabilityInput:
		return d.SetupInput
	case CapabilityOutput:
		return d.SetupOutput
	case CapabilityTunnel:
		return d.SetupTunnel
	default:
		return nil
	}
}

var (
	mu         sync.Mutex
	discovered = make(map[string]Descriptor)
)

// Discover inserts d into the process-wide discovery table. Call it from a
// plugin package's init(). Panics on a duplicate name, a compile-time bug.
func Discover(d Descriptor) {
	mu.Lock()
	defer mu.Unlock()
	if d.Name == "" {
		panic("plugin: descriptor name cannot be empty")
	}
	if _, exists := discovered[d.Name]; exists {
		panic("plugin: " + d.Name + " already discovered")
	}
	discovered[d.Name] = d
}

func lookup(name string) (Descriptor, bool) {
	mu.Lock()
	defer mu.Unlock()
	d, ok := discovered[name]
	return d, ok
}

// Names returns every discovered plugin name, used by `ffwdd plugins`.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, 0, len(discovered))
	for name := range discovered {
		out = append(out, name)
	}
	return out
}

// Capabilities reports the discovered capabilities for a plugin name.
func Capabilities(name string) []Capability {
	d, ok := lookup(name)
	if !ok {
		return nil
	}
	var caps []Capability
	for _, kind := range []Capability{CapabilityInput, CapabilityOutput, CapabilityTunnel} {
		if d.Can(kind) {
			caps = append(caps, kind)
		}
	}
	return caps
}
