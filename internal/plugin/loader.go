package plugin

import (
	log "github.com/relaydaemon/ffwdd/internal/log"
)

// Config is one entry of a bind/connect/tunnel plugin list as read from
// configuration: which discovered plugin to instantiate, and its options.
type Config struct {
	Type    string // "" is rejected; the config entry's declared kind
	Name    string
	Options map[string]interface{}
}

// Setup is a validated, ready-to-invoke plugin instantiation request handed
// to the supervisor.
type Setup struct {
	Name     string
	Kind     Capability
	Callable SetupFunc
	Options  map[string]interface{}
}

// Load validates configs against the discovery table for the given
// capability and returns one Setup per valid entry. Invalid entries —
// missing type, unknown plugin name, or a plugin lacking the capability —
// are logged at error level and skipped; the rest still load.
func Load(kind Capability, configs []Config, logger log.Logger) []Setup {
	var setups []Setup
	for _, c := range configs {
		if c.Type == "" {
			logger.Errorf("plugin config missing \"type\": %+v", c)
			continue
		}
		d, ok := lookup(c.Name)
		if !ok {
			logger.Errorf("plugin %q: not discovered", c.Name)
			continue
		}
		if !d.Can(kind) {
			logger.Errorf("plugin %q: has no %s capability", c.Name, kind)
			continue
		}
		setups = append(setups, Setup{
			Name:     c.Name,
			Kind:     kind,
			Callable: d.setupFor(kind),
			Options:  c.Options,
		})
	}
	return setups
}
