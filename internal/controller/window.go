package controller

import (
	"sort"
	"time"
)

// acceptWindow is a fixed-size ring of feedback outcomes. Older entries decay
// out as new feedback arrives.
type acceptWindow struct {
	results  []bool
	next     int
	count    int
	accepted int
}

func newAcceptWindow(size int) *acceptWindow {
	return &acceptWindow{results: make([]bool, size)}
}

func (w *acceptWindow) add(accepted bool) {
	if w.count == len(w.results) {
		if w.results[w.next] {
			w.accepted--
		}
	} else {
		w.count++
	}
	w.results[w.next] = accepted
	if accepted {
		w.accepted++
	}
	w.next = (w.next + 1) % len(w.results)
}

// accuracy returns the acceptance ratio over the window; ok is false when the
// window is empty.
func (w *acceptWindow) accuracy() (float64, bool) {
	if w.count == 0 {
		return 0, false
	}
	return float64(w.accepted) / float64(w.count), true
}

// latencyWindow is a fixed-size ring of response-time samples.
type latencyWindow struct {
	samples []time.Duration
	next    int
	count   int
}

func newLatencyWindow(size int) *latencyWindow {
	return &latencyWindow{samples: make([]time.Duration, size)}
}

func (w *latencyWindow) add(d time.Duration) {
	w.samples[w.next] = d
	if w.count < len(w.samples) {
		w.count++
	}
	w.next = (w.next + 1) % len(w.samples)
}

// p95 returns the 95th percentile sample; ok is false below a minimum sample
// count, where a percentile would be noise.
func (w *latencyWindow) p95(minSamples int) (time.Duration, bool) {
	if w.count < minSamples {
		return 0, false
	}
	sorted := make([]time.Duration, w.count)
	copy(sorted, w.samples[:w.count])
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[(len(sorted)*95+99)/100-1], true
}
