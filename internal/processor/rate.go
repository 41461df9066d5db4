package processor

import (
	"github.com/relaydaemon/ffwdd/internal/model"
	"github.com/relaydaemon/ffwdd/internal/reporter"
)

// rateSample remembers the previous reading for a key so Process can derive
// a per-second rate from the delta.
type rateSample struct {
	value float64
	time  int64
}

// rateProcessor emits (value - previous_value)/elapsed_seconds since the
// previous sample for each key, following the same bounded-cache shape as countProcessor. The
// first sample for a key has no prior reading to diff against, so it is
// recorded but not emitted.
type rateProcessor struct {
	limit   int
	prev    map[string]rateSample
	emitter Emitter
	counts  *reporter.Counters
}

func newRateProcessor(opts map[string]interface{}) (Processor, error) {
	limit := defaultCacheLimit
	if v, ok := opts["cache_limit"].(int); ok && v > 0 {
		limit = v
	}
	return &rateProcessor{limit: limit, prev: make(map[string]rateSample), counts: reporter.NewCounters()}, nil
}

func (p *rateProcessor) Start(emitter Emitter) {
	p.emitter = emitter
}

func (p *rateProcessor) Label() string              { return "processor.rate" }
func (p *rateProcessor) Counts() *reporter.Counters { return p.counts }

func (p *rateProcessor) Process(m model.Metric) {
	last, exists := p.prev[m.Key]
	if !exists && len(p.prev) >= p.limit {
		p.counts.Increment("dropped", 1)
		return
	}
	p.prev[m.Key] = rateSample{value: m.Value, time: m.Time}
	if !exists {
		return
	}
	elapsed := m.Time - last.time
	if elapsed <= 0 {
		p.counts.Increment("skipped", 1)
		return
	}
	rate := (m.Value - last.value) / float64(elapsed)
	if p.emitter != nil {
		p.emitter.EmitMetric(model.Metric{
			Key:        m.Key,
			Value:      rate,
			Time:       m.Time,
			Host:       m.Host,
			Tags:       m.Tags,
			Attributes: m.Attributes,
			TTL:        m.TTL,
		})
		p.counts.Increment("emitted", 1)
	}
}

func init() {
	Register("rate", newRateProcessor)
}
