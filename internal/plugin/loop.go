package plugin

import "github.com/relaydaemon/ffwdd/internal/loop"

// activeLoop is the process-wide Loop the supervisor constructs at
// startup. Plugin Setup funcs that build a connect.Client or bind.Server
// read it via Loop() rather than taking it as a parameter, since the
// discovery table registered in each plugin's init has no supervisor
// instance to close over.
var activeLoop *loop.Loop

// SetLoop records the supervisor's Loop. Call once, before the first
// plugin.Load, from Supervisor.Start.
func SetLoop(l *loop.Loop) {
	activeLoop = l
}

// Loop returns the Loop set by SetLoop, or nil before startup wires it.
func Loop() *loop.Loop {
	return activeLoop
}
