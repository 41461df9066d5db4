// Package reporter implements the Statistics/Reporter aggregator: every
// component that counts things (sent/dropped events, failed flushes, ...)
// exposes its Counters, and a periodic timer drains the non-zero ones into
// structured log lines and metrics onto the input channel.
package reporter

// Counters is a single-task-safe named counter set. Every connect client,
// bind server, and processor that counts something embeds one.
type Counters struct {
	values map[string]int64
}

func NewCounters() *Counters {
	return &Counters{values: make(map[string]int64)}
}

// Increment adds n (which may be negative, though no caller needs that
// today) to the named counter.
func (c *Counters) Increment(name string, n int64) {
	c.values[name] += n
}

// HasAny reports whether any counter is non-zero, matching the component
// contract's report?() predicate.
func (c *Counters) HasAny() bool {
	for _, v := range c.values {
		if v != 0 {
			return true
		}
	}
	return false
}

// Get returns the current value of a single named counter without
// resetting it, mainly useful for assertions in tests.
func (c *Counters) Get(name string) int64 {
	return c.values[name]
}

// Snapshot returns the current counts and resets every counter to zero, so
// each reporting window counts only items seen since the last report.
func (c *Counters) Snapshot() map[string]int64 {
	out := make(map[string]int64, len(c.values))
	for k, v := range c.values {
		if v != 0 {
			out[k] = v
		}
		c.values[k] = 0
	}
	return out
}

// Peek returns the current counts without resetting them, for introspection
// callers (the control socket's stats query) that must not disturb the next
// reporting window.
func (c *Counters) Peek() map[string]int64 {
	out := make(map[string]int64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
