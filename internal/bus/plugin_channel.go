package bus

import (
	log "github.com/relaydaemon/ffwdd/internal/log"
	"github.com/relaydaemon/ffwdd/internal/model"
)

// LifecycleState is one of PluginChannel's five lifecycle states.
type LifecycleState int

const (
	StateInitial LifecycleState = iota
	StateStarting
	StateStarted
	StateStopping
	StateStopped
)

func (s LifecycleState) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateStarting:
		return "starting"
	case StateStarted:
		return "started"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// PluginChannel pairs an event Channel and a metric Channel with a lifecycle
// state machine. starting/stopping callbacks are one-shot and run, isolated
// from each other's errors, in registration order on Start and reverse
// registration order on Stop.
type PluginChannel struct {
	id    string
	log   log.Logger
	Event *Channel[model.Event]
	Metric *Channel[model.Metric]

	state     LifecycleState
	onStart   []func()
	onStop    []func()
}

func NewPluginChannel(id string, logger log.Logger) *PluginChannel {
	return &PluginChannel{
		id:     id,
		log:    logger,
		Event:  NewChannel[model.Event](id+".event", logger),
		Metric: NewChannel[model.Metric](id+".metric", logger),
		state:  StateInitial,
	}
}

func (p *PluginChannel) ID() string           { return p.id }
func (p *PluginChannel) State() LifecycleState { return p.state }

// Starting registers a one-shot callback invoked when Start runs.
func (p *PluginChannel) Starting(cb func()) {
	p.onStart = append(p.onStart, cb)
}

// Stopping registers a one-shot callback invoked, in reverse registration
// order, when Stop runs.
func (p *PluginChannel) Stopping(cb func()) {
	p.onStop = append(p.onStop, cb)
}

// Start walks the starting callbacks in registration order, isolating
// panics the same way Channel.Publish does.
func (p *PluginChannel) Start() {
	p.state = StateStarting
	callbacks := p.onStart
	p.onStart = nil
	for _, cb := range callbacks {
		p.runIsolated(cb)
	}
	p.state = StateStarted
}

// Stop walks the stopping callbacks in reverse registration order, then
// drops every subscriber on both channels. After Stop, Publish on either
// channel is a no-op.
func (p *PluginChannel) Stop() {
	p.state = StateStopping
	callbacks := p.onStop
	p.onStop = nil
	for i := len(callbacks) - 1; i >= 0; i-- {
		p.runIsolated(callbacks[i])
	}
	p.Event.Close()
	p.Metric.Close()
	p.state = StateStopped
}

// PublishMetric publishes m on the metric channel, so a PluginChannel can
// serve as a reporter.MetricSink.
func (p *PluginChannel) PublishMetric(m model.Metric) { p.Metric.Publish(m) }

func (p *PluginChannel) runIsolated(cb func()) {
	defer func() {
		if r := recover(); r != nil && p.log != nil {
			p.log.WithField("panic", r).Errorf("%s: lifecycle callback failed", p.id)
		}
	}()
	cb()
}
