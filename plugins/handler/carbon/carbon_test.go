package carbon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydaemon/ffwdd/internal/ffwdtest"
	"github.com/relaydaemon/ffwdd/internal/loop"
	"github.com/relaydaemon/ffwdd/internal/model"
	"github.com/relaydaemon/ffwdd/internal/plugin"

	_ "github.com/relaydaemon/ffwdd/internal/transport/bind"
	_ "github.com/relaydaemon/ffwdd/internal/transport/connect"
)

func TestHandlerSerializeMetric(t *testing.T) {
	data, err := Handler{}.SerializeMetric(model.Metric{Key: "srv.load", Value: 1.5, Time: 1700000000})
	require.NoError(t, err)
	assert.Equal(t, "srv.load 1.5 1700000000\n", string(data))
}

func TestHandlerSerializeEventSkipsNoValue(t *testing.T) {
	data, err := Handler{}.SerializeEvent(model.Event{Key: "srv.alert", HasValue: false})
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestHandlerSerializeEventWithValue(t *testing.T) {
	data, err := Handler{}.SerializeEvent(model.Event{Key: "srv.alert", Value: 1, HasValue: true, Time: 1700000000})
	require.NoError(t, err)
	assert.Equal(t, "srv.alert 1 1700000000\n", string(data))
}

type recordingSink struct {
	metrics []model.Metric
	events  []model.Event
}

func (s *recordingSink) PublishMetric(m model.Metric) { s.metrics = append(s.metrics, m) }
func (s *recordingSink) PublishEvent(e model.Event)   { s.events = append(s.events, e) }

func TestConnectionParsesGoodLineAndDropsMalformed(t *testing.T) {
	sink := &recordingSink{}
	logger := ffwdtest.NewLogger()
	conn := NewConnectionFactory(logger)(sink)

	conn.Handle([]byte("srv.load 1.5 1700000000\nbad line\n \n"))

	require.Len(t, sink.metrics, 1)
	assert.Equal(t, model.Metric{Key: "srv.load", Value: 1.5, Time: 1700000000}, sink.metrics[0])

	errCount := 0
	for _, e := range logger.Entries() {
		if e.Level == "error" {
			errCount++
		}
	}
	assert.Equal(t, 2, errCount)
}

func TestConnectionBuffersPartialFrames(t *testing.T) {
	sink := &recordingSink{}
	conn := NewConnectionFactory(ffwdtest.NewLogger())(sink)

	conn.Handle([]byte("srv.load 1.5 "))
	assert.Empty(t, sink.metrics)

	conn.Handle([]byte("1700000000\n"))
	require.Len(t, sink.metrics, 1)
	assert.Equal(t, "srv.load", sink.metrics[0].Key)
}

func TestConnectionCloseClearsBuffer(t *testing.T) {
	sink := &recordingSink{}
	conn := NewConnectionFactory(ffwdtest.NewLogger())(sink).(*Connection)
	conn.Handle([]byte("partial"))
	conn.Close()
	assert.Nil(t, conn.buf)
}

func TestProtocolOptDefaultsToTCP(t *testing.T) {
	assert.Equal(t, "tcp", protocolOpt(map[string]interface{}{}))
	assert.Equal(t, "udp", protocolOpt(map[string]interface{}{"protocol": "udp"}))
}

func TestSetupInputRejectsUnknownProtocol(t *testing.T) {
	_, err := setupInput(map[string]interface{}{"protocol": "quic"})
	require.Error(t, err)
}

func TestSetupOutputRejectsUnknownProtocol(t *testing.T) {
	_, err := setupOutput(map[string]interface{}{"protocol": "quic"})
	require.Error(t, err)
}

func withLoop(t *testing.T, fn func()) {
	t.Helper()
	plugin.SetLoop(loop.New(16))
	defer plugin.SetLoop(nil)
	fn()
}

func TestSetupInputResolvesRegisteredProtocol(t *testing.T) {
	withLoop(t, func() {
		out, err := setupInput(map[string]interface{}{"protocol": "tcp", "host": "127.0.0.1", "port": 0})
		require.NoError(t, err)
		assert.NotNil(t, out)
	})
}

func TestSetupOutputResolvesRegisteredProtocol(t *testing.T) {
	withLoop(t, func() {
		out, err := setupOutput(map[string]interface{}{"protocol": "unix+tcp", "path": "/tmp/ffwdd-carbon-test.sock"})
		require.NoError(t, err)
		assert.NotNil(t, out)
	})
}
