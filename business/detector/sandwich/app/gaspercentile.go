package app

import (
	"sort"
	"sync"
)

// gasPercentileTracker keeps a bounded window of recently observed gas
// prices (wei) so the detector can bid the frontrun/backrun legs at a
// percentile of live network activity instead of a fixed multiplier.
type gasPercentileTracker struct {
	mu     sync.Mutex
	window []int64
	cap    int
	next   int
	full   bool
}

func newGasPercentileTracker(capacity int) *gasPercentileTracker {
	return &gasPercentileTracker{window: make([]int64, capacity), cap: capacity}
}

// Observe records a gas price sample.
func (t *gasPercentileTracker) Observe(weiGasPrice int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.window[t.next] = weiGasPrice
	t.next = (t.next + 1) % t.cap
	if t.next == 0 {
		t.full = true
	}
}

// Percentile returns the pct-th percentile (0-100) of the observed window,
// falling back to fallback when fewer than two samples exist.
func (t *gasPercentileTracker) Percentile(pct float64, fallback int64) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.next
	if t.full {
		n = t.cap
	}
	if n < 2 {
		return fallback
	}

	samples := make([]int64, n)
	copy(samples, t.window[:n])
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	idx := int(pct / 100 * float64(n-1))
	return samples[idx]
}
