// Package plugins blank-imports every built-in plugin package, and the
// transport packages that register protocol factories into the transport
// registry, so all of their init() functions run before the supervisor
// starts loading configured input/output/tunnel entries.
package plugins

import (
	_ "github.com/relaydaemon/ffwdd/internal/transport/bind"
	_ "github.com/relaydaemon/ffwdd/internal/transport/connect"
	_ "github.com/relaydaemon/ffwdd/plugins/handler/carbon"
	_ "github.com/relaydaemon/ffwdd/plugins/reporter/console"
	_ "github.com/relaydaemon/ffwdd/plugins/reporter/kafka"
)
