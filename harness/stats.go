// File: harness/stats.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Statistics reduction over a frozen latency log.

package harness

import (
	"slices"
	"time"

	"github.com/momentics/hioload-mpsc/api"
)

// Percentile is one requested quantile and its value.
type Percentile struct {
	Rank  float64       `json:"rank"`
	Value time.Duration `json:"value_ns"`
}

// Statistics is an immutable summary of a non-empty sample set.
// Mean is Sum/Count using integer division on nanoseconds.
type Statistics struct {
	Count       int           `json:"count"`
	Sum         time.Duration `json:"sum_ns"`
	Mean        time.Duration `json:"mean_ns"`
	Min         time.Duration `json:"min_ns"`
	Max         time.Duration `json:"max_ns"`
	Percentiles []Percentile  `json:"percentiles,omitempty"`
}

// Summarize reduces samples to Statistics without modifying them.
// An empty input yields api.ErrEmptySampleSet.
func Summarize(samples []time.Duration, percentiles ...float64) (Statistics, error) {
	if len(samples) == 0 {
		return Statistics{}, api.ErrEmptySampleSet
	}

	st := Statistics{
		Count: len(samples),
		Min:   samples[0],
		Max:   samples[0],
	}
	for _, d := range samples {
		st.Sum += d
		if d < st.Min {
			st.Min = d
		}
		if d > st.Max {
			st.Max = d
		}
	}
	st.Mean = st.Sum / time.Duration(st.Count)

	if len(percentiles) > 0 {
		sorted := slices.Clone(samples)
		slices.Sort(sorted)
		st.Percentiles = make([]Percentile, 0, len(percentiles))
		for _, p := range percentiles {
			st.Percentiles = append(st.Percentiles, Percentile{Rank: p, Value: rankValue(sorted, p)})
		}
	}
	return st, nil
}

// rankValue picks the element at index floor((n-1)*p/100) of sorted data.
func rankValue(sorted []time.Duration, p float64) time.Duration {
	idx := int(float64(len(sorted)-1) * (p / 100.0))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
