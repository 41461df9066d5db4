// Package supervisor implements the core supervisor: the fixed startup
// order that wires PluginChannels, tunnels, the processor dispatcher, bind
// and connect plugins, statistics, and the control socket around one
// shared event loop, and the shutdown path that tears it all back down.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/relaydaemon/ffwdd/internal/bus"
	"github.com/relaydaemon/ffwdd/internal/config"
	"github.com/relaydaemon/ffwdd/internal/control"
	"github.com/relaydaemon/ffwdd/internal/core"
	log "github.com/relaydaemon/ffwdd/internal/log"
	"github.com/relaydaemon/ffwdd/internal/loop"
	"github.com/relaydaemon/ffwdd/internal/plugin"
	"github.com/relaydaemon/ffwdd/internal/processor"
	"github.com/relaydaemon/ffwdd/internal/promreport"
	"github.com/relaydaemon/ffwdd/internal/reporter"
)

// Bindable is what the supervisor invokes a bind plugin Setup's Callable
// result as, after narrowing it to this interface.
type Bindable interface {
	Start(input, output *bus.PluginChannel) error
}

// Connectable is what the supervisor invokes a connect plugin Setup's
// Callable result as.
type Connectable interface {
	Start(output *bus.PluginChannel)
}

// Supervisor owns the process-wide event loop and every component
// constructed from it.
type Supervisor struct {
	cfg *config.Config
	log log.Logger

	loop   *loop.Loop
	input  *bus.PluginChannel
	output *bus.PluginChannel

	aggregator *reporter.Aggregator
	metrics    *promreport.Server
	controlSrv *control.Server

	binds    []Bindable
	connects []Connectable
}

// New constructs a Supervisor. Nothing is started yet.
func New(cfg *config.Config, logger log.Logger) *Supervisor {
	return &Supervisor{cfg: cfg, log: logger, loop: loop.New(256)}
}

// Start runs the fixed startup sequence and returns once every component is
// up; the event loop itself keeps running on its own goroutine until Stop.
func (s *Supervisor) Start() error {
	go s.loop.Run()
	plugin.SetLoop(s.loop)

	// 1. PluginChannels.
	s.input = bus.NewPluginChannel("input", s.log)
	s.output = bus.NewPluginChannel("output", s.log)

	// 2. Tunnels. FFWDD's tunnel sub-protocol wire format is left
	// unspecified, so tunnel Setups are loaded and invoked but their
	// returned value is discarded.
	tunnelSetups := plugin.Load(plugin.CapabilityTunnel, toPluginConfigs(s.cfg.Tunnel), s.log)
	for _, setup := range tunnelSetups {
		if _, err := setup.Callable(setup.Options); err != nil {
			return fmt.Errorf("supervisor: constructing tunnel %q: %w", setup.Name, err)
		}
	}

	// 3. Processors, emitter, dispatcher.
	loaded, err := s.loadProcessors()
	if err != nil {
		return err
	}
	emitter := core.NewEmitter(core.Defaults{
		Host:       s.cfg.Core.Host,
		Tags:       s.cfg.Core.Tags,
		Attributes: s.cfg.Core.Attributes,
		TTL:        s.cfg.Core.TTL,
	}, s.output)
	for _, p := range loaded {
		p.Start(emitter)
	}
	dispatcher := core.NewDispatcher(s.log, emitter, loaded)

	// 4. Bind and connect plugins.
	if err := s.instantiateBinds(); err != nil {
		return err
	}
	if err := s.instantiateConnects(); err != nil {
		return err
	}

	// 5. Event loop sub-steps.
	dispatcher.Start(s.input)

	interval := time.Duration(s.cfg.ReportInterval) * time.Second
	s.aggregator = reporter.NewAggregator(s.loop, s.log, s.input, interval)

	s.input.Start()
	s.output.Start()

	for i, b := range s.binds {
		if err := b.Start(s.input, s.output); err != nil {
			return fmt.Errorf("supervisor: starting bind plugin %d: %w", i, err)
		}
	}
	registered := 0
	for _, c := range s.connects {
		if r, ok := c.(reporter.Reportable); ok {
			s.aggregator.Register(r)
			registered++
		}
		c.Start(s.output)
	}
	for _, p := range loaded {
		if r, ok := p.(reporter.Reportable); ok {
			s.aggregator.Register(r)
			registered++
		}
	}

	if len(s.cfg.Statistics) > 0 {
		s.log.Infof("statistics enabled: %d reportable components registered", registered)
	}

	if addr, ok := debugMetricsAddr(s.cfg.Debug); ok {
		s.metrics = promreport.NewServer(addr, "", s.log)
		if err := s.metrics.Start(context.Background()); err != nil {
			return fmt.Errorf("supervisor: starting metrics server: %w", err)
		}
	}

	if s.cfg.Control.Socket != "" {
		s.controlSrv = control.NewServer(s.cfg.Control.Socket, controlHandler{s: s}, s.log)
		if err := s.controlSrv.Start(); err != nil {
			return fmt.Errorf("supervisor: starting control socket: %w", err)
		}
	}

	s.aggregator.Start()
	return nil
}

// Stop runs the shutdown hook: it stops the aggregator and the control
// socket, then triggers the output and then the input PluginChannel's
// stopping callback chain (which closes every connect client and bind server
// in reverse-registration order), then stops the metrics server and loop.
func (s *Supervisor) Stop() {
	if s.aggregator != nil {
		s.aggregator.Stop()
	}
	if s.controlSrv != nil {
		s.controlSrv.Stop()
	}
	if s.output != nil {
		s.output.Stop()
	}
	if s.input != nil {
		s.input.Stop()
	}
	if s.metrics != nil {
		s.metrics.Stop(context.Background())
	}
	s.loop.Stop()
}

func (s *Supervisor) loadProcessors() (map[string]processor.Processor, error) {
	loaded := make(map[string]processor.Processor, len(s.cfg.ProcessorOpts))
	for name, opts := range s.cfg.ProcessorOpts {
		p, err := processor.Build(name, opts)
		if err != nil {
			return nil, fmt.Errorf("supervisor: loading processor %q: %w", name, err)
		}
		loaded[name] = p
	}
	return loaded, nil
}
