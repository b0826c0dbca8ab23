// Package cost tallies provider usage during a batch and rolls it up
// into an estimated USD figure for the batch report. Estimates only;
// actual billing lives with the providers.
package cost

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Tracker accumulates per-provider call counts. Safe for concurrent use
// by article workers.
type Tracker struct {
	mu    sync.Mutex
	calls map[string]int
	rates map[string]float64 // USD per thousand calls
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		calls: make(map[string]int),
		rates: make(map[string]float64),
	}
}

// Record notes n calls against a provider at its per-thousand rate.
func (t *Tracker) Record(provider string, perThousand float64, n int) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls[provider] += n
	t.rates[provider] = perThousand
}

// TotalUSD returns the estimated spend across all providers.
func (t *Tracker) TotalUSD() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total float64
	for provider, n := range t.calls {
		total += float64(n) / 1000 * t.rates[provider]
	}
	return total
}

// Breakdown renders a per-provider summary line, providers sorted by
// name for stable output.
func (t *Tracker) Breakdown() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	providers := make([]string, 0, len(t.calls))
	for provider := range t.calls {
		providers = append(providers, provider)
	}
	sort.Strings(providers)

	parts := make([]string, 0, len(providers))
	for _, provider := range providers {
		n := t.calls[provider]
		parts = append(parts, fmt.Sprintf("%s: %d calls ($%.4f)",
			provider, n, float64(n)/1000*t.rates[provider]))
	}
	return strings.Join(parts, ", ")
}
