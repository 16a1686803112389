// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Named debug variables read by the progress reporter. Variables registered
// through a group live under "<group>.<name>" so several runs can share one
// registry without clobbering each other.

package control

import (
	"sort"
	"sync"
)

// DebugVars maps variable names to sampling functions.
type DebugVars struct {
	mu   sync.RWMutex
	vars map[string]func() any
}

// NewDebugVars creates an empty registry.
func NewDebugVars() *DebugVars {
	return &DebugVars{
		vars: make(map[string]func() any),
	}
}

// Register sets a top-level variable, replacing one of the same name.
func (dp *DebugVars) Register(name string, fn func() any) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.vars[name] = fn
}

// Unregister removes a top-level variable.
func (dp *DebugVars) Unregister(name string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	delete(dp.vars, name)
}

// RegisterGroup adds every variable in fns under group and returns a function
// removing exactly those entries.
func (dp *DebugVars) RegisterGroup(group string, fns map[string]func() any) (unregister func()) {
	keys := make([]string, 0, len(fns))
	dp.mu.Lock()
	for name, fn := range fns {
		key := group + "." + name
		dp.vars[key] = fn
		keys = append(keys, key)
	}
	dp.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			dp.mu.Lock()
			defer dp.mu.Unlock()
			for _, key := range keys {
				delete(dp.vars, key)
			}
		})
	}
}

// Names lists registered variable names in sorted order.
func (dp *DebugVars) Names() []string {
	dp.mu.RLock()
	out := make([]string, 0, len(dp.vars))
	for name := range dp.vars {
		out = append(out, name)
	}
	dp.mu.RUnlock()
	sort.Strings(out)
	return out
}

// DumpState samples every variable. Samplers run under the read lock and must not
// touch the registry.
func (dp *DebugVars) DumpState() map[string]any {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	out := make(map[string]any, len(dp.vars))
	for name, fn := range dp.vars {
		out[name] = fn()
	}
	return out
}
