package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
report_interval: 30
core:
  host: node-a
  tags: [env:prod]
  ttl: 60
processor_opts:
  count:
    cache_limit: 500
input:
  - type: input
    name: carbon
    host: 0.0.0.0
    port: 2003
output:
  - type: output
    name: graphite
    host: collector
    port: 2004
    flush_period: 5
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ffwdd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesExplicitValues(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.ReportInterval)
	assert.Equal(t, "node-a", cfg.Core.Host)
	assert.Equal(t, 60, cfg.Core.TTL)
	assert.Equal(t, 500, cfg.ProcessorOpts["count"]["cache_limit"])

	require.Len(t, cfg.Input, 1)
	assert.Equal(t, "carbon", cfg.Input[0].Name)
	assert.Equal(t, "tcp", cfg.Input[0].Protocol, "protocol defaults to tcp")
	assert.Equal(t, defaultOutboundLimit, cfg.Input[0].OutboundLimit)

	require.Len(t, cfg.Output, 1)
	require.NotNil(t, cfg.Output[0].FlushPeriod)
	assert.Equal(t, 5, *cfg.Output[0].FlushPeriod, "explicit flush_period is kept")
}

func TestLoadKeepsExplicitZeroFlushPeriod(t *testing.T) {
	path := writeTempConfig(t, `output:
  - type: output
    name: graphite
    host: collector
    port: 2004
    flush_period: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Output, 1)
	require.NotNil(t, cfg.Output[0].FlushPeriod, "explicit flush_period: 0 must not be defaulted")
	assert.Equal(t, 0, *cfg.Output[0].FlushPeriod, "flush_period: 0 selects streaming mode")
}

func TestLoadAppliesDefaultsOnEmptyConfig(t *testing.T) {
	path := writeTempConfig(t, `output:
  - type: output
    name: graphite
    host: collector
    port: 2004
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, defaultReportInterval, cfg.ReportInterval)
	require.Len(t, cfg.Output, 1)
	assert.Equal(t, defaultProtocol, cfg.Output[0].Protocol)
	require.NotNil(t, cfg.Output[0].FlushPeriod)
	assert.Equal(t, defaultFlushPeriod, *cfg.Output[0].FlushPeriod)
	assert.Equal(t, defaultOutboundLimit, cfg.Output[0].OutboundLimit)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
