package connect

import (
	"net"

	"github.com/relaydaemon/ffwdd/internal/loop"
)

// writeJob is one queued write plus the callback to run (on the loop) once
// the bytes have actually left this process, so the caller can release its
// outbound-byte budget.
type writeJob struct {
	payload []byte
	release func()
}

const writeQueueDepth = 4096

// asyncWriter serializes writes to a single net.Conn on its own goroutine so
// the loop goroutine never blocks on socket I/O, while still reporting
// write failures back onto the loop via onError.
type asyncWriter struct {
	raw     net.Conn
	loop    *loop.Loop
	onError func(err error)

	jobs chan writeJob
	done chan struct{}
}

func newAsyncWriter(conn net.Conn, l *loop.Loop, onError func(error)) *asyncWriter {
	w := &asyncWriter{
		raw:     conn,
		loop:    l,
		onError: onError,
		jobs:    make(chan writeJob, writeQueueDepth),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for job := range w.jobs {
		_, err := w.raw.Write(job.payload)
		w.loop.Go(job.release)
		if err != nil {
			w.loop.Go(func() { w.onError(err) })
			return
		}
	}
}

// Write enqueues payload for delivery. If the queue is full — the socket is
// badly backed up beyond what outbound_limit alone caught — the write is
// dropped and release is still invoked so the byte budget isn't leaked.
func (w *asyncWriter) Write(payload []byte, release func()) {
	select {
	case w.jobs <- writeJob{payload: payload, release: release}:
	default:
		release()
	}
}

// Close stops accepting new writes and closes the underlying socket. Callers
// must not invoke Write after Close; the client's own teardown order
// guarantees that by unsubscribing before closing the writer.
func (w *asyncWriter) Close() {
	w.raw.Close()
	close(w.jobs)
}
