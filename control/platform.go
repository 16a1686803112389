// control/platform.go
// Author: momentics <momentics@gmail.com>
//
// Runtime-level debug variables.

package control

import (
	"runtime"
)

// RegisterPlatformVars registers scheduler-level variables.
func RegisterPlatformVars(dp *DebugVars) {
	dp.Register("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.Register("platform.gomaxprocs", func() any {
		return runtime.GOMAXPROCS(0)
	})
	dp.Register("platform.goroutines", func() any {
		return runtime.NumGoroutine()
	})
}
