package control

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydaemon/ffwdd/internal/ffwdtest"
)

type stubHandler struct {
	plugins interface{}
	stats   interface{}
}

func (h stubHandler) Plugins() interface{} { return h.plugins }
func (h stubHandler) Stats() interface{}   { return h.stats }

func TestServerAnswersPluginsAndStats(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "ffwdd.sock")
	logger := ffwdtest.NewLogger()
	srv := NewServer(socketPath, stubHandler{
		plugins: []string{"carbon", "kafka"},
		stats:   map[string]map[string]int64{"connect tcp://h:1": {"sent_metrics": 3}},
	}, logger)
	require.NoError(t, srv.Start())
	defer srv.Stop()

	client := NewClient(socketPath, time.Second)

	pluginsResp, err := client.Plugins()
	require.NoError(t, err)
	assert.ElementsMatch(t, []interface{}{"carbon", "kafka"}, pluginsResp.Result.([]interface{}))

	statsResp, err := client.Stats()
	require.NoError(t, err)
	assert.NotNil(t, statsResp.Result)
}

func TestServerRejectsUnknownMethod(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "ffwdd.sock")
	srv := NewServer(socketPath, stubHandler{}, ffwdtest.NewLogger())
	require.NoError(t, srv.Start())
	defer srv.Stop()

	client := NewClient(socketPath, time.Second)
	_, err := client.call("bogus")
	assert.Error(t, err)
}

func TestClientReturnsErrorWhenSocketMissing(t *testing.T) {
	client := NewClient(filepath.Join(t.TempDir(), "missing.sock"), time.Second)
	_, err := client.Plugins()
	assert.Error(t, err)
}
