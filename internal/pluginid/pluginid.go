// Package pluginid mints stable opaque identifiers for connect/bind plugin
// instances and their accepted peer connections, used in log lines and
// subscription tokens.
package pluginid

import "github.com/google/uuid"

// New returns a fresh correlation ID, e.g. for logging alongside
// "Connected tcp://peer" / "Disconnected" lines.
func New() string {
	return uuid.New().String()
}
