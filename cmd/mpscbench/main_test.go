package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-mpsc/harness"
)

func TestRun_TextSummary(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-capacity", "4", "-producers", "2", "-messages", "50", "-backend", "mutex", "-log-level", "error"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "count: 100\n")
	assert.Contains(t, stdout.String(), "p99: ")
}

func TestRun_JSONSummaryAndMetrics(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-capacity", "2", "-producers", "3", "-messages", "10", "-scheduler", "task",
		"-termination", "signal", "-poll-interval", "1ms", "-format", "json", "-metrics", "-log-json"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var report map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.EqualValues(t, 30, report["received"])
	assert.Contains(t, stderr.String(), "mpsc_messages_received_total")
}

func TestRun_ConfigFileWithFlagOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capacity: 8\nproducers: 1\nmessages_per_producer: 5\nbackend: lockfree\n"), 0o600))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", path, "-producers", "2", "-log-level", "error"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "backend=lockfree")
	assert.Contains(t, stdout.String(), "count: 10\n")
}

func TestRun_EmptyWorkload(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-producers", "0", "-log-level", "error"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "no samples")
}

func TestRun_BadConfiguration(t *testing.T) {
	cases := [][]string{
		{"-capacity", "0"},
		{"-backend", "kanal"},
		{"-format", "xml"},
		{"-percentiles", "50,abc"},
		{"-log-level", "loud"},
		{"-config", filepath.Join(t.TempDir(), "missing.yaml")},
		{"-no-such-flag"},
	}
	for _, args := range cases {
		var stdout, stderr bytes.Buffer
		assert.Equal(t, exitConfig, run(context.Background(), args, &stdout, &stderr), "args %v", args)
		assert.Empty(t, stdout.String(), "args %v", args)
	}
}

func TestRun_UnknownConfigKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capacty: 8\n"), 0o600))
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitConfig, run(context.Background(), []string{"-config", path}, &stdout, &stderr))
}

func TestParsePercentiles(t *testing.T) {
	got, err := parsePercentiles("50, 99.9,,100")
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 99.9, 100}, got)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRun_InterruptedRunFails(t *testing.T) {
	hold := make(chan struct{})
	t.Cleanup(func() { close(hold) })
	stall := harness.WithBeforeSend(func(int, uint64) { <-hold })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// the abandoned run keeps logging in the background
	var stdout bytes.Buffer
	var stderr lockedBuffer
	code := run(ctx, []string{"-producers", "1", "-messages", "10", "-log-json"}, &stdout, &stderr, stall)
	assert.Equal(t, exitInterrupted, code)
	assert.NotEqual(t, exitOK, code)
	assert.Empty(t, stdout.String(), "no summary for an interrupted run")
	assert.Contains(t, stderr.String(), "benchmark interrupted")
}

func TestRun_ProducerFailureExitsFatal(t *testing.T) {
	boom := harness.WithBeforeSend(func(producer int, seq uint64) {
		if producer == 0 && seq == 3 {
			panic("boom")
		}
	})

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-capacity", "2", "-producers", "3", "-messages", "20", "-log-json"}, &stdout, &stderr, boom)
	assert.Equal(t, exitFatal, code)
	assert.Empty(t, stdout.String(), "no partial summary")
	assert.Contains(t, stderr.String(), `"component":"producer"`)
	assert.Contains(t, stderr.String(), `"command":"data"`)
}
