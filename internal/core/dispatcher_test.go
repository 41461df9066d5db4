package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaydaemon/ffwdd/internal/bus"
	"github.com/relaydaemon/ffwdd/internal/ffwdtest"
	"github.com/relaydaemon/ffwdd/internal/model"
	"github.com/relaydaemon/ffwdd/internal/processor"
)

type stubProcessor struct {
	seen []model.Metric
}

func (s *stubProcessor) Process(m model.Metric) { s.seen = append(s.seen, m) }
func (s *stubProcessor) Start(processor.Emitter) {}

func TestDispatcherRoutesByProcTag(t *testing.T) {
	logger := ffwdtest.NewLogger()
	input := bus.NewPluginChannel("input", logger)
	output := bus.NewPluginChannel("output", logger)
	emitter := NewEmitter(Defaults{Host: "h"}, output)

	count := &stubProcessor{}
	d := NewDispatcher(logger, emitter, map[string]processor.Processor{"count": count})
	d.Start(input)
	input.Start()
	output.Start()

	var passthrough []model.Metric
	output.Metric.Subscribe(func(m model.Metric) { passthrough = append(passthrough, m) })

	input.Metric.Publish(model.Metric{Key: "a", Proc: "count"})
	input.Metric.Publish(model.Metric{Key: "b"})
	input.Metric.Publish(model.Metric{Key: "c", Proc: "unknown"})

	assert.Len(t, count.seen, 1)
	assert.Equal(t, "a", count.seen[0].Key)

	assert.Len(t, passthrough, 2)
	assert.Equal(t, "b", passthrough[0].Key)
	assert.Equal(t, "h", passthrough[0].Host, "emitter must stamp default host")
	assert.Equal(t, "c", passthrough[1].Key, "unknown proc tag forwards unchanged")
}

func TestDispatcherForwardsEventsUnchanged(t *testing.T) {
	logger := ffwdtest.NewLogger()
	input := bus.NewPluginChannel("input", logger)
	output := bus.NewPluginChannel("output", logger)
	emitter := NewEmitter(Defaults{Host: "h"}, output)
	d := NewDispatcher(logger, emitter, nil)
	d.Start(input)
	input.Start()
	output.Start()

	var got model.Event
	output.Event.Subscribe(func(e model.Event) { got = e })

	input.Event.Publish(model.Event{Key: "e1"})
	assert.Equal(t, "e1", got.Key)
	assert.Equal(t, "h", got.Host)
}
