package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydaemon/ffwdd/internal/model"
	"github.com/relaydaemon/ffwdd/internal/reporter"
)

func TestRateEmitsDeltaOverElapsedSeconds(t *testing.T) {
	p, err := newRateProcessor(nil)
	assert.NoError(t, err)

	emitter := &recordingEmitter{}
	p.Start(emitter)

	p.Process(model.Metric{Key: "reqs", Value: 100, Time: 1000})
	assert.Empty(t, emitter.emitted, "first sample has nothing to diff against")

	p.Process(model.Metric{Key: "reqs", Value: 150, Time: 1010})
	assert.Len(t, emitter.emitted, 1)
	assert.InDelta(t, 5.0, emitter.emitted[0].Value, 0.0001)
}

func TestRateProcessorIsReportable(t *testing.T) {
	p, err := newRateProcessor(nil)
	require.NoError(t, err)

	r, ok := p.(reporter.Reportable)
	require.True(t, ok, "rateProcessor must implement reporter.Reportable")
	assert.Equal(t, "processor.rate", r.Label())

	emitter := &recordingEmitter{}
	p.Start(emitter)
	p.Process(model.Metric{Key: "reqs", Value: 100, Time: 1000})
	p.Process(model.Metric{Key: "reqs", Value: 150, Time: 1010})
	p.Process(model.Metric{Key: "reqs", Value: 150, Time: 1010}) // non-positive elapsed: skipped

	counts := r.Counts()
	assert.Equal(t, int64(1), counts.Peek()["emitted"])
	assert.Equal(t, int64(1), counts.Peek()["skipped"])
}
