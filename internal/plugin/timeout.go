package plugin

import (
	"fmt"
	"time"
)

// RunWithTimeout runs fn on its own goroutine and returns its error, or a
// timeout error if fn hasn't returned within d. fn is expected to stop
// doing useful work promptly once its context/deadline expires; callers
// that need that level of cooperation pass a context-aware fn and ignore
// the leaked goroutine on timeout, same as the rest of the ecosystem does
// for best-effort plugin init/shutdown hooks.
func RunWithTimeout(label string, d time.Duration, fn func() error) error {
	if d <= 0 {
		return fn()
	}
	errCh := make(chan error, 1)
	go func() { errCh <- fn() }()
	select {
	case err := <-errCh:
		return err
	case <-time.After(d):
		return fmt.Errorf("%s: timed out after %s", label, d)
	}
}
