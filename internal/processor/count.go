package processor

import (
	"github.com/relaydaemon/ffwdd/internal/model"
	"github.com/relaydaemon/ffwdd/internal/reporter"
)

const defaultCacheLimit = 10000

// countProcessor maintains a bounded key -> accumulated_value mapping. Each
// Process call adds to the running total and immediately emits the new
// total. Once cache_limit distinct keys are seen, further new keys are
// silently dropped; existing keys keep updating.
type countProcessor struct {
	limit   int
	cache   map[string]float64
	emitter Emitter
	counts  *reporter.Counters
}

func newCountProcessor(opts map[string]interface{}) (Processor, error) {
	limit := defaultCacheLimit
	if v, ok := opts["cache_limit"].(int); ok && v > 0 {
		limit = v
	}
	return &countProcessor{limit: limit, cache: make(map[string]float64), counts: reporter.NewCounters()}, nil
}

func (p *countProcessor) Start(emitter Emitter) {
	p.emitter = emitter
}

func (p *countProcessor) Label() string              { return "processor.count" }
func (p *countProcessor) Counts() *reporter.Counters { return p.counts }

func (p *countProcessor) Process(m model.Metric) {
	_, exists := p.cache[m.Key]
	if !exists && len(p.cache) >= p.limit {
		p.counts.Increment("dropped", 1)
		return
	}
	p.cache[m.Key] += m.Value
	if p.emitter != nil {
		p.emitter.EmitMetric(model.Metric{
			Key:        m.Key,
			Value:      p.cache[m.Key],
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
	Register("count", newCountProcessor)
}
