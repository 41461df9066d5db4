// Package console implements a debug output plugin that logs every event
// and metric it sees instead of forwarding it anywhere, for local
// inspection of a running pipeline.
package console

import (
	"encoding/json"
	"fmt"

	"github.com/relaydaemon/ffwdd/internal/bus"
	log "github.com/relaydaemon/ffwdd/internal/log"
	"github.com/relaydaemon/ffwdd/internal/model"
	"github.com/relaydaemon/ffwdd/internal/plugin"
	"github.com/relaydaemon/ffwdd/internal/reporter"
)

// Config controls the printed representation.
type Config struct {
	Format string // "json" or "text", default "text"
}

func parseConfig(opts map[string]interface{}) (Config, error) {
	cfg := Config{Format: "text"}
	if v, ok := opts["format"]; ok {
		s, ok := v.(string)
		if !ok || (s != "json" && s != "text") {
			return cfg, fmt.Errorf("console: \"format\" must be \"json\" or \"text\"")
		}
		cfg.Format = s
	}
	return cfg, nil
}

// Reporter prints every event/metric it receives to stdout.
type Reporter struct {
	cfg    Config
	log    log.Logger
	counts *reporter.Counters
}

// New validates opts and constructs a Reporter.
func New(opts map[string]interface{}, logger log.Logger) (*Reporter, error) {
	cfg, err := parseConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Reporter{cfg: cfg, log: logger, counts: reporter.NewCounters()}, nil
}

// Label and Counts satisfy reporter.Reportable.
func (r *Reporter) Label() string              { return "console" }
func (r *Reporter) Counts() *reporter.Counters { return r.counts }

// Start subscribes to output and prints each item as it arrives.
func (r *Reporter) Start(output *bus.PluginChannel) {
	output.Event.Subscribe(r.printEvent)
	output.Metric.Subscribe(r.printMetric)
}

func (r *Reporter) printEvent(e model.Event) {
	r.counts.Increment("printed_events", 1)
	if r.cfg.Format == "json" {
		data, err := json.Marshal(e)
		if err != nil {
			r.log.WithError(err).Error("console: failed to marshal event")
			return
		}
		fmt.Println(string(data))
		return
	}
	fmt.Printf("[event] %s=%v host=%s state=%s tags=%v\n", e.Key, e.Value, e.Host, e.State, e.Tags)
}

func (r *Reporter) printMetric(m model.Metric) {
	r.counts.Increment("printed_metrics", 1)
	if r.cfg.Format == "json" {
		data, err := json.Marshal(m)
		if err != nil {
			r.log.WithError(err).Error("console: failed to marshal metric")
			return
		}
		fmt.Println(string(data))
		return
	}
	fmt.Printf("[metric] %s=%v host=%s proc=%s\n", m.Key, m.Value, m.Host, m.Proc)
}

func init() {
	plugin.Discover(plugin.Descriptor{
		Name: "console",
		SetupOutput: func(opts map[string]interface{}) (interface{}, error) {
			return New(opts, log.GetLogger())
		},
	})
}
