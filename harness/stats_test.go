package harness

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-mpsc/api"
)

func durations(ns ...int64) []time.Duration {
	out := make([]time.Duration, len(ns))
	for i, v := range ns {
		out[i] = time.Duration(v)
	}
	return out
}

func TestSummarize_Basic(t *testing.T) {
	samples := durations(300, 100, 200, 400)
	st, err := Summarize(samples)
	require.NoError(t, err)

	assert.Equal(t, 4, st.Count)
	assert.Equal(t, time.Duration(1000), st.Sum)
	assert.Equal(t, time.Duration(250), st.Mean)
	assert.Equal(t, time.Duration(100), st.Min)
	assert.Equal(t, time.Duration(400), st.Max)
	assert.Empty(t, st.Percentiles)
}

func TestSummarize_IntegerMean(t *testing.T) {
	st, err := Summarize(durations(1, 2))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(1), st.Mean, "mean truncates toward zero")
}

func TestSummarize_SingleSample(t *testing.T) {
	st, err := Summarize(durations(42), 50, 99)
	require.NoError(t, err)
	assert.Equal(t, st.Min, st.Mean)
	assert.Equal(t, st.Max, st.Mean)
	for _, p := range st.Percentiles {
		assert.Equal(t, time.Duration(42), p.Value)
	}
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(nil)
	assert.ErrorIs(t, err, api.ErrEmptySampleSet)

	_, err = Summarize([]time.Duration{}, 50)
	assert.ErrorIs(t, err, api.ErrEmptySampleSet)
}

func TestSummarize_DoesNotMutateInput(t *testing.T) {
	samples := durations(5, 3, 9, 1)
	orig := append([]time.Duration(nil), samples...)
	_, err := Summarize(samples, 50, 90)
	require.NoError(t, err)
	assert.Equal(t, orig, samples)
}

func TestSummarize_Percentiles(t *testing.T) {
	samples := make([]time.Duration, 0, 100)
	for i := 100; i >= 1; i-- {
		samples = append(samples, time.Duration(i))
	}
	st, err := Summarize(samples, 0, 50, 90, 99, 100)
	require.NoError(t, err)

	want := []Percentile{
		{Rank: 0, Value: 1},
		{Rank: 50, Value: 50},
		{Rank: 90, Value: 90},
		{Rank: 99, Value: 99},
		{Rank: 100, Value: 100},
	}
	assert.Equal(t, want, st.Percentiles)
}

func TestSummarize_Ordering(t *testing.T) {
	samples := durations(17, 3, 250, 12, 8, 99, 1000, 5)
	st, err := Summarize(samples, DefaultPercentiles...)
	require.NoError(t, err)
	assert.LessOrEqual(t, st.Min, st.Mean)
	assert.LessOrEqual(t, st.Mean, st.Max)
	assert.Equal(t, st.Sum/time.Duration(st.Count), st.Mean)
	for i := 1; i < len(st.Percentiles); i++ {
		assert.LessOrEqual(t, st.Percentiles[i-1].Value, st.Percentiles[i].Value)
	}
}

func TestLatencyLog(t *testing.T) {
	l := NewLatencyLog(4)
	l.Append(10)
	l.Append(-5)
	l.Append(30)
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, durations(10, 0, 30), l.Samples())

	assert.False(t, l.Frozen())
	l.Freeze()
	l.Freeze()
	assert.True(t, l.Frozen())
	assert.Panics(t, func() { l.Append(1) })
}

func TestLatencyLog_NegativeIsClamped(t *testing.T) {
	l := NewLatencyLog(1)
	l.Append(-1)
	require.Equal(t, 1, l.Len())
	assert.Equal(t, time.Duration(0), l.Samples()[0])
}

func TestLatencyLog_PreallocationIsBounded(t *testing.T) {
	l := NewLatencyLog(math.MaxInt)
	assert.LessOrEqual(t, cap(l.samples), maxPreallocSamples)

	l = NewLatencyLog(-3)
	assert.Equal(t, 0, cap(l.samples))
	l.Append(5)
	assert.Equal(t, 1, l.Len())
}

func TestMergeLogs(t *testing.T) {
	a, b := NewLatencyLog(2), NewLatencyLog(1)
	a.Append(1)
	a.Append(2)
	b.Append(3)
	a.Freeze()
	b.Freeze()

	m := mergeLogs([]*LatencyLog{a, b})
	assert.True(t, m.Frozen())
	assert.Equal(t, durations(1, 2, 3), m.Samples())
	assert.Equal(t, 0, mergeLogs(nil).Len())
}

func TestBarrier_ReleasesAfterAllDone(t *testing.T) {
	b := NewBarrier(3)
	assert.Equal(t, 3, b.Remaining())

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Done(nil)
		}()
	}

	done := make(chan error, 1)
	go func() { done <- b.WaitForAllProducers() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("barrier not released")
	}
	wg.Wait()
	assert.Equal(t, 0, b.Remaining())
}

func TestBarrier_NotReleasedEarly(t *testing.T) {
	b := NewBarrier(2)
	b.Done(nil)
	select {
	case <-b.Released():
		t.Fatal("released with a producer outstanding")
	case <-time.After(20 * time.Millisecond):
	}
	b.Done(nil)
	<-b.Released()
}

func TestBarrier_ZeroIsReleased(t *testing.T) {
	b := NewBarrier(0)
	assert.NoError(t, b.WaitForAllProducers())
}

func TestBarrier_FirstErrorWins(t *testing.T) {
	first := errors.New("first")
	b := NewBarrier(3)
	b.Done(nil)
	b.Done(first)
	b.Done(errors.New("second"))
	assert.Same(t, first, b.WaitForAllProducers())
}

func TestBarrier_OverrunPanics(t *testing.T) {
	b := NewBarrier(1)
	b.Done(nil)
	assert.Panics(t, func() { b.Done(nil) })
}

func TestRunConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Capacity = 0
	cfg.Producers = -1
	cfg.Backend = "kanal"
	cfg.Termination = TerminationSignal
	cfg.PollInterval = 0
	cfg.Percentiles = []float64{50, 101}

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.ErrCodeInvalidArgument, apiErr.Code)
	for _, field := range []string{"capacity", "producers", "backend", "poll_interval", "percentiles"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestRunConfig_ZeroWorkAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Producers = 0
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, int64(0), cfg.TotalMessages())

	cfg = DefaultConfig()
	cfg.MessagesPerProducer = 0
	assert.NoError(t, cfg.Validate())
}

func TestRunConfig_TotalMessages(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, int64(10_000_000), cfg.TotalMessages())
}

func TestReport_WriteText(t *testing.T) {
	st, err := Summarize(durations(100, 200, 300), 50)
	require.NoError(t, err)
	r := &Report{Config: DefaultConfig(), Elapsed: time.Second, Received: 3, Throughput: 3, Stats: &st}

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "count: 3\n")
	assert.Contains(t, out, "mean: 200 ns\n")
	assert.Contains(t, out, "min: 100 ns\n")
	assert.Contains(t, out, "max: 300 ns\n")
	assert.Contains(t, out, "p50: 200 ns\n")
	assert.Contains(t, out, "throughput: 3 msg/s\n")
}

func TestReport_WriteTextEmpty(t *testing.T) {
	r := &Report{Config: DefaultConfig()}
	assert.True(t, r.Empty())

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	assert.True(t, strings.HasSuffix(buf.String(), "count: 0\nno samples\n"))
}

func TestReport_WriteJSON(t *testing.T) {
	st, err := Summarize(durations(10, 30))
	require.NoError(t, err)
	r := &Report{Config: DefaultConfig(), Received: 2, Stats: &st}

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	stats, ok := decoded["stats"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, stats["count"])
	assert.EqualValues(t, 20, stats["mean_ns"])
	assert.EqualValues(t, 2, decoded["received"])
}
