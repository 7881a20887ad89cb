// uart9/trace_host.go

//go:build !tinygo

package uart9

import "github.com/GoogleCloudPlatform/galog"

// tracef logs configuration events. Never call it from an interrupt handler.
func tracef(format string, args ...any) {
	galog.V(2).Debugf(format, args...)
}
