// Package processor implements named aggregation processors (count, rate)
// and the registry that maps a processor name to its factory.
package processor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/relaydaemon/ffwdd/internal/model"
)

// Emitter is the narrow interface a Processor needs to emit derived
// metrics from its own periodic timers (see Start).
type Emitter interface {
	EmitMetric(model.Metric)
}

// Processor is a named stateful transform: it consumes metrics via Process
// and may arm periodic timers in Start that call back into the Emitter.
type Processor interface {
	Process(m model.Metric)
	Start(emitter Emitter)
}

// Factory builds a Processor from its processor_opts.<name> options.
type Factory func(opts map[string]interface{}) (Processor, error)

var (
	mu        sync.Mutex
	factories = make(map[string]Factory)
)

// Register adds a processor factory under name. Panics on a duplicate
// registration, matching the registry pattern used across the plugin
// system.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	if name == "" {
		panic("processor: name cannot be empty")
	}
	if factory == nil {
		panic(fmt.Sprintf("processor: factory for %q cannot be nil", name))
	}
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("processor: %q already registered", name))
	}
	factories[name] = factory
}

// Build constructs the named processor with opts, or an error if the name
// isn't registered.
func Build(name string, opts map[string]interface{}) (Processor, error) {
	mu.Lock()
	factory, ok := factories[name]
	mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("processor %q not registered", name)
	}
	return factory(opts)
}

// List returns every registered processor name, sorted.
func List() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, 0, len(factories))
	for name := range factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
