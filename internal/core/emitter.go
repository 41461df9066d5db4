// Package core implements the CoreEmitter (default-stamping) and
// CoreProcessorDispatcher (proc-tag routing) that sit between the input and
// output PluginChannels.
package core

import (
	"github.com/relaydaemon/ffwdd/internal/bus"
	"github.com/relaydaemon/ffwdd/internal/model"
)

// Defaults holds the core.* configuration applied to any Event/Metric field
// left unset by its source.
type Defaults struct {
	Host       string
	Tags       []string
	Attributes map[string]string
	TTL        int
}

// Emitter stamps defaults onto events/metrics missing those fields, then
// publishes onto the output channel. It satisfies processor.Emitter.
type Emitter struct {
	defaults Defaults
	output   *bus.PluginChannel
}

func NewEmitter(defaults Defaults, output *bus.PluginChannel) *Emitter {
	return &Emitter{defaults: defaults, output: output}
}

func (e *Emitter) EmitMetric(m model.Metric) {
	if m.Host == "" {
		m.Host = e.defaults.Host
	}
	if len(m.Tags) == 0 {
		m.Tags = e.defaults.Tags
	}
	if len(m.Attributes) == 0 {
		m.Attributes = e.defaults.Attributes
	}
	if m.TTL == 0 {
		m.TTL = e.defaults.TTL
	}
	e.output.Metric.Publish(m)
}

func (e *Emitter) EmitEvent(ev model.Event) {
	if ev.Host == "" {
		ev.Host = e.defaults.Host
	}
	if len(ev.Tags) == 0 {
		ev.Tags = e.defaults.Tags
	}
	if len(ev.Attributes) == 0 {
		ev.Attributes = e.defaults.Attributes
	}
	if ev.TTL == 0 {
		ev.TTL = e.defaults.TTL
	}
	e.output.Event.Publish(ev)
}
