package core

import (
	"github.com/relaydaemon/ffwdd/internal/bus"
	log "github.com/relaydaemon/ffwdd/internal/log"
	"github.com/relaydaemon/ffwdd/internal/model"
	"github.com/relaydaemon/ffwdd/internal/processor"
)

// Dispatcher routes each inbound metric either to the processor named by
// its Proc tag, or straight through to the Emitter when Proc is unset or
// names a processor that was never loaded. Events always pass through
// unchanged.
type Dispatcher struct {
	log        log.Logger
	emitter    *Emitter
	processors map[string]processor.Processor
}

func NewDispatcher(logger log.Logger, emitter *Emitter, loaded map[string]processor.Processor) *Dispatcher {
	return &Dispatcher{log: logger, emitter: emitter, processors: loaded}
}

// Start subscribes to input's event and metric topics.
func (d *Dispatcher) Start(input *bus.PluginChannel) {
	input.Metric.Subscribe(d.handleMetric)
	input.Event.Subscribe(d.emitter.EmitEvent)
}

func (d *Dispatcher) handleMetric(m model.Metric) {
	if m.Proc != "" {
		if p, ok := d.processors[m.Proc]; ok {
			p.Process(m)
			return
		}
	}
	d.emitter.EmitMetric(m)
}
