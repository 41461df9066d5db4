package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydaemon/ffwdd/internal/bus"
	"github.com/relaydaemon/ffwdd/internal/ffwdtest"
	"github.com/relaydaemon/ffwdd/internal/model"
)

func TestNewValidatesFormat(t *testing.T) {
	tests := []struct {
		name    string
		opts    map[string]any
		wantErr bool
		wantFmt string
	}{
		{"nil opts defaults to text", nil, false, "text"},
		{"empty opts defaults to text", map[string]any{}, false, "text"},
		{"json format", map[string]any{"format": "json"}, false, "json"},
		{"text format", map[string]any{"format": "text"}, false, "text"},
		{"invalid format", map[string]any{"format": "xml"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.opts, ffwdtest.NewLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFmt, r.cfg.Format)
		})
	}
}

func TestStartCountsPrintedItems(t *testing.T) {
	r, err := New(map[string]any{"format": "json"}, ffwdtest.NewLogger())
	require.NoError(t, err)

	output := bus.NewPluginChannel("output", ffwdtest.NewLogger())
	r.Start(output)
	output.Start()

	output.Event.Publish(model.Event{Key: "srv.alert", State: "critical"})
	output.Metric.Publish(model.Metric{Key: "srv.load", Value: 1.5})

	assert.Equal(t, int64(1), r.Counts().Get("printed_events"))
	assert.Equal(t, int64(1), r.Counts().Get("printed_metrics"))
}

func TestLabelIsConsole(t *testing.T) {
	r, err := New(nil, ffwdtest.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, "console", r.Label())
}
