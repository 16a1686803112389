// File: harness/progress.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Periodic progress line sampled from debug variables.

package harness

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-mpsc/control"
)

// startProgress logs the debug variables every interval until the returned stop
// function is called or ctx ends. A non-positive interval disables it.
func startProgress(ctx context.Context, log zerolog.Logger, vars *control.DebugVars, interval time.Duration) (stop func()) {
	if interval <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				log.Info().Fields(vars.DumpState()).Msg("progress")
			case <-ctx.Done():
				return
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
