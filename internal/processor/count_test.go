package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydaemon/ffwdd/internal/model"
	"github.com/relaydaemon/ffwdd/internal/reporter"
)

type recordingEmitter struct {
	emitted []model.Metric
}

func (r *recordingEmitter) EmitMetric(m model.Metric) {
	r.emitted = append(r.emitted, m)
}

func TestCountAggregation(t *testing.T) {
	p, err := newCountProcessor(map[string]interface{}{"cache_limit": 10})
	assert.NoError(t, err)

	emitter := &recordingEmitter{}
	p.Start(emitter)

	p.Process(model.Metric{Key: "x", Value: 1})
	p.Process(model.Metric{Key: "x", Value: 2})
	p.Process(model.Metric{Key: "y", Value: 5})
	p.Process(model.Metric{Key: "x", Value: 3})

	values := make([]float64, len(emitter.emitted))
	for i, m := range emitter.emitted {
		values[i] = m.Value
	}
	assert.Equal(t, []float64{1, 3, 5, 6}, values)
}

func TestCountDropsNewKeysPastCacheLimit(t *testing.T) {
	p, err := newCountProcessor(map[string]interface{}{"cache_limit": 1})
	assert.NoError(t, err)

	emitter := &recordingEmitter{}
	p.Start(emitter)

	p.Process(model.Metric{Key: "a", Value: 1})
	p.Process(model.Metric{Key: "b", Value: 1}) // new key, cache full: dropped
	p.Process(model.Metric{Key: "a", Value: 1}) // existing key still updates

	assert.Len(t, emitter.emitted, 2)
	assert.Equal(t, "a", emitter.emitted[0].Key)
	assert.Equal(t, "a", emitter.emitted[1].Key)
	assert.Equal(t, 2.0, emitter.emitted[1].Value)
}

func TestCountProcessorIsReportable(t *testing.T) {
	p, err := newCountProcessor(map[string]interface{}{"cache_limit": 1})
	require.NoError(t, err)

	r, ok := p.(reporter.Reportable)
	require.True(t, ok, "countProcessor must implement reporter.Reportable")
	assert.Equal(t, "processor.count", r.Label())

	emitter := &recordingEmitter{}
	p.Start(emitter)
	p.Process(model.Metric{Key: "a", Value: 1})
	p.Process(model.Metric{Key: "b", Value: 1}) // dropped, past cache_limit

	counts := r.Counts()
	assert.Equal(t, int64(1), counts.Peek()["emitted"])
	assert.Equal(t, int64(1), counts.Peek()["dropped"])
}
