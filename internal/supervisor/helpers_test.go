package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaydaemon/ffwdd/internal/config"
)

func TestToPluginConfigsFlattensFields(t *testing.T) {
	flush := 5
	out := toPluginConfigs([]config.PluginConfig{
		{Name: "carbon", Host: "0.0.0.0", Port: 2003, Protocol: "tcp", FlushPeriod: &flush, OutboundLimit: 1024, Options: map[string]any{"custom": "x"}},
	})
	assert.Len(t, out, 1)
	assert.Equal(t, "carbon", out[0].Name)
	assert.Equal(t, "0.0.0.0", out[0].Options["host"])
	assert.Equal(t, 2003, out[0].Options["port"])
	assert.Equal(t, "x", out[0].Options["custom"])
	assert.Equal(t, 5, out[0].Options["flush_period"])
}

func TestToPluginConfigsOmitsFlushPeriodWhenUnset(t *testing.T) {
	out := toPluginConfigs([]config.PluginConfig{
		{Name: "carbon", Host: "0.0.0.0", Port: 2003, Protocol: "tcp", OutboundLimit: 1024},
	})
	assert.Len(t, out, 1)
	_, ok := out[0].Options["flush_period"]
	assert.False(t, ok, "flush_period should only be set when explicitly configured")
}

func TestToPluginConfigsKeepsExplicitZeroFlushPeriod(t *testing.T) {
	zero := 0
	out := toPluginConfigs([]config.PluginConfig{
		{Name: "carbon", Host: "0.0.0.0", Port: 2003, Protocol: "tcp", FlushPeriod: &zero, OutboundLimit: 1024},
	})
	assert.Equal(t, 0, out[0].Options["flush_period"], "explicit flush_period: 0 selects streaming mode")
}

func TestDebugMetricsAddr(t *testing.T) {
	addr, ok := debugMetricsAddr(map[string]any{"metrics_addr": ":9090"})
	assert.True(t, ok)
	assert.Equal(t, ":9090", addr)

	_, ok = debugMetricsAddr(nil)
	assert.False(t, ok)

	_, ok = debugMetricsAddr(map[string]any{})
	assert.False(t, ok)
}

func TestControlHandlerStatsWithoutAggregator(t *testing.T) {
	h := controlHandler{s: &Supervisor{}}
	assert.Equal(t, map[string]map[string]int64{}, h.Stats())
}
