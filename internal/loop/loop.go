// Package loop implements the single logical executor that the rest of the
// core runs its callbacks on. Sockets, timers, and accept loops do their
// blocking I/O on their own goroutines, but every callback that touches
// Channel/PluginChannel/Counters state is funneled through Loop.Go so it
// runs on one goroutine at a time — the Go rendition of the single-task
// cooperative scheduler the design assumes, without requiring an
// application-level lock on every piece of shared state.
package loop

// Loop is a single-consumer task queue. Submitting work from any goroutine
// via Go is safe; the work itself always runs on the loop's own goroutine,
// one task at a time, in submission order.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

// New creates a Loop with the given task queue depth. It does not start the
// loop's goroutine; the caller runs Run on its own goroutine and pairs it
// with Stop.
func New(queueDepth int) *Loop {
	if queueDepth <= 0 {
		queueDepth = 1024
	}
	return &Loop{
		tasks: make(chan func(), queueDepth),
		done:  make(chan struct{}),
	}
}

// Run executes queued tasks until Stop is called. Call it on its own
// goroutine; it blocks until Stop.
func (l *Loop) Run() {
	defer close(l.done)
	for task := range l.tasks {
		task()
	}
}

// Go submits fn to run on the loop's goroutine. It never blocks the caller
// for longer than it takes to enqueue.
func (l *Loop) Go(fn func()) {
	l.tasks <- fn
}

// Stop closes the task queue and waits for Run to drain it and return.
func (l *Loop) Stop() {
	close(l.tasks)
	<-l.done
}
