package supervisor

import (
	"fmt"

	"github.com/relaydaemon/ffwdd/internal/config"
	"github.com/relaydaemon/ffwdd/internal/plugin"
)

// toPluginConfigs flattens a config.PluginConfig list into the options map
// shape plugin.Load and each plugin's SetupFunc expect.
func toPluginConfigs(entries []config.PluginConfig) []plugin.Config {
	out := make([]plugin.Config, 0, len(entries))
	for _, e := range entries {
		opts := make(map[string]interface{}, len(e.Options)+6)
		for k, v := range e.Options {
			opts[k] = v
		}
		opts["host"] = e.Host
		opts["port"] = e.Port
		opts["protocol"] = e.Protocol
		if e.FlushPeriod != nil {
			opts["flush_period"] = *e.FlushPeriod
		}
		opts["outbound_limit"] = e.OutboundLimit
		opts["path"] = e.Path
		out = append(out, plugin.Config{Type: e.Type, Name: e.Name, Options: opts})
	}
	return out
}

func (s *Supervisor) instantiateBinds() error {
	setups := plugin.Load(plugin.CapabilityInput, toPluginConfigs(s.cfg.Input), s.log)
	for _, setup := range setups {
		built, err := setup.Callable(setup.Options)
		if err != nil {
			return fmt.Errorf("supervisor: constructing input plugin %q: %w", setup.Name, err)
		}
		b, ok := built.(Bindable)
		if !ok {
			return fmt.Errorf("supervisor: input plugin %q does not implement Start(input, output)", setup.Name)
		}
		s.binds = append(s.binds, b)
	}
	return nil
}

func (s *Supervisor) instantiateConnects() error {
	setups := plugin.Load(plugin.CapabilityOutput, toPluginConfigs(s.cfg.Output), s.log)
	for _, setup := range setups {
		built, err := setup.Callable(setup.Options)
		if err != nil {
			return fmt.Errorf("supervisor: constructing output plugin %q: %w", setup.Name, err)
		}
		c, ok := built.(Connectable)
		if !ok {
			return fmt.Errorf("supervisor: output plugin %q does not implement Start(output)", setup.Name)
		}
		s.connects = append(s.connects, c)
	}
	return nil
}

// debugMetricsAddr extracts debug.metrics_addr from the opaque debug config
// block, if present.
func debugMetricsAddr(debug map[string]any) (string, bool) {
	if debug == nil {
		return "", false
	}
	addr, ok := debug["metrics_addr"].(string)
	if !ok || addr == "" {
		return "", false
	}
	return addr, true
}

// controlHandler adapts the Supervisor to control.Handler.
type controlHandler struct {
	s *Supervisor
}

func (h controlHandler) Plugins() interface{} {
	out := make(map[string][]string, len(plugin.Names()))
	for _, name := range plugin.Names() {
		caps := plugin.Capabilities(name)
		tags := make([]string, len(caps))
		for i, c := range caps {
			tags[i] = string(c)
		}
		out[name] = tags
	}
	return out
}

func (h controlHandler) Stats() interface{} {
	if h.s.aggregator == nil {
		return map[string]map[string]int64{}
	}
	return h.s.aggregator.Stats()
}
