package reporter

import (
	"time"

	log "github.com/relaydaemon/ffwdd/internal/log"
	"github.com/relaydaemon/ffwdd/internal/loop"
	"github.com/relaydaemon/ffwdd/internal/model"
)

// Reportable is satisfied by any component whose Counters should be drained
// periodically: connect clients, processors, and the console and kafka
// output plugins.
type Reportable interface {
	Label() string
	Counts() *Counters
}

// MetricSink is the input channel's metric side; the aggregator publishes
// each drained counter onto it so counts flow downstream like any other
// metric.
type MetricSink interface {
	PublishMetric(model.Metric)
}

// Aggregator is the supervisor-owned periodic reporter: on each tick it
// walks every registered Reportable, logs a structured line for the ones
// with non-zero counts, and emits each count as a metric.
type Aggregator struct {
	log      log.Logger
	sink     MetricSink
	interval time.Duration
	loop     *loop.Loop

	components []Reportable

	stop chan struct{}
	done chan struct{}
}

const DefaultInterval = 600 * time.Second

// NewAggregator builds an Aggregator whose reports run on l, the core's
// single logical executor, rather than on the ticker's own goroutine.
func NewAggregator(l *loop.Loop, logger log.Logger, sink MetricSink, interval time.Duration) *Aggregator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Aggregator{loop: l, log: logger, sink: sink, interval: interval}
}

// Register adds a component to the reporting roster. Call before Start.
func (a *Aggregator) Register(r Reportable) {
	a.components = append(a.components, r)
}

// Start arms the periodic reporting timer. The ticker goroutine only
// schedules work; reportAll itself always runs on the loop.
func (a *Aggregator) Start() {
	a.stop = make(chan struct{})
	a.done = make(chan struct{})
	go a.run()
}

func (a *Aggregator) run() {
	defer close(a.done)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.loop.Go(a.reportAll)
		}
	}
}

func (a *Aggregator) reportAll() {
	for _, c := range a.components {
		if !c.Counts().HasAny() {
			continue
		}
		a.report(c)
	}
}

func (a *Aggregator) report(c Reportable) {
	label := c.Label()
	counts := c.Counts().Snapshot()
	a.log.WithField("counts", counts).Infof("%s: report", label)
	if a.sink == nil {
		return
	}
	for name, v := range counts {
		a.sink.PublishMetric(model.Metric{
			Key:   label + "." + name,
			Value: float64(v),
		})
	}
}

// Stats returns a point-in-time, non-destructive view of every registered
// component's counters, keyed by label. Used by the control socket's stats
// query; unlike reportAll it never resets a counter.
func (a *Aggregator) Stats() map[string]map[string]int64 {
	out := make(map[string]map[string]int64, len(a.components))
	for _, c := range a.components {
		out[c.Label()] = c.Counts().Peek()
	}
	return out
}

// Stop halts the periodic timer and waits for the background goroutine to
// exit.
func (a *Aggregator) Stop() {
	if a.stop == nil {
		return
	}
	close(a.stop)
	<-a.done
}
