// Package control
// Author: momentics <momentics@gmail.com>
//
// Run configuration loading, metrics and debug introspection for hioload-mpsc.
//
// Provides:
//   - YAML configuration decoding on top of caller supplied defaults
//   - A Prometheus-backed metrics registry filled from finished runs
//   - Named debug variables sampled by the progress reporter
package control
