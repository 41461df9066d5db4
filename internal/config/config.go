// Package config defines the static configuration tree and loads it from
// YAML via viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	log "github.com/relaydaemon/ffwdd/internal/log"
)

// Config is the top-level configuration consumed by the supervisor.
type Config struct {
	ReportInterval int                       `mapstructure:"report_interval"`
	Core           CoreConfig                `mapstructure:"core"`
	ProcessorOpts  map[string]map[string]any `mapstructure:"processor_opts"`
	Input          []PluginConfig            `mapstructure:"input"`
	Output         []PluginConfig            `mapstructure:"output"`
	Tunnel         []PluginConfig            `mapstructure:"tunnel"`
	Statistics     map[string]any            `mapstructure:"statistics"`
	Debug          map[string]any            `mapstructure:"debug"`
	Log            log.LoggerConfig          `mapstructure:"log"`
	Control        ControlConfig             `mapstructure:"control"`
}

// CoreConfig holds the defaults the emitter stamps onto every metric/event
// that doesn't already carry them.
type CoreConfig struct {
	Host       string            `mapstructure:"host"`
	Tags       []string          `mapstructure:"tags"`
	Attributes map[string]string `mapstructure:"attributes"`
	TTL        int               `mapstructure:"ttl"`
}

// PluginConfig is one entry of the input/output/tunnel plugin lists.
type PluginConfig struct {
	Type          string `mapstructure:"type"`
	Name          string `mapstructure:"name"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Protocol      string `mapstructure:"protocol"`
	FlushPeriod   *int   `mapstructure:"flush_period"`
	OutboundLimit int    `mapstructure:"outbound_limit"`
	Path          string `mapstructure:"path"`

	Options map[string]any `mapstructure:",remain"`
}

// ControlConfig configures the control-socket listener.
type ControlConfig struct {
	Socket string `mapstructure:"socket"`
}

const (
	defaultReportInterval = 600
	defaultProtocol       = "tcp"
	defaultFlushPeriod    = 10
	defaultOutboundLimit  = 1 << 20
	defaultCacheLimit     = 10000
)

// applyDefaults fills in every field spec.md §6 documents a default for.
func (c *Config) applyDefaults() {
	if c.ReportInterval == 0 {
		c.ReportInterval = defaultReportInterval
	}
	for i := range c.Input {
		applyPluginDefaults(&c.Input[i])
	}
	for i := range c.Output {
		applyPluginDefaults(&c.Output[i])
	}
	for i := range c.Tunnel {
		applyPluginDefaults(&c.Tunnel[i])
	}
	if opts, ok := c.ProcessorOpts["count"]; ok {
		if _, ok := opts["cache_limit"]; !ok {
			opts["cache_limit"] = defaultCacheLimit
		}
	}
}

func applyPluginDefaults(p *PluginConfig) {
	if p.Protocol == "" {
		p.Protocol = defaultProtocol
	}
	if p.FlushPeriod == nil {
		d := defaultFlushPeriod
		p.FlushPeriod = &d
	}
	if p.OutboundLimit == 0 {
		p.OutboundLimit = defaultOutboundLimit
	}
}

// Load reads path as YAML through viper and returns a defaulted Config.
// File format and path resolution are a thin adapter; the struct and its
// defaulting are the part that matters.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}
