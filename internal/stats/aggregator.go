// Package stats keeps bounded in-memory detection statistics and history.
package stats

import (
	"sync"

	"github.com/ecosort/smartbin/internal/model"
	"github.com/ecosort/smartbin/internal/waste"
)

// DefaultCapacity bounds the detection history when no capacity is configured.
const DefaultCapacity = 100

// Aggregator accumulates rolling detection history and counters. It is
// mutated from the ingestion path and read concurrently by stats requests;
// snapshots are consistent point-in-time copies.
type Aggregator struct {
	mu       sync.RWMutex
	capacity int
	history  []model.DetectionEvent // newest first
	total    int64
	byClass  map[model.Category]int64
	multi    int64
	routed   int64
}

// NewAggregator constructs an aggregator holding at most capacity events.
func NewAggregator(capacity int) *Aggregator {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Aggregator{
		capacity: capacity,
		byClass:  emptyByClass(),
	}
}

func emptyByClass() map[model.Category]int64 {
	return map[model.Category]int64{
		model.CategoryDry:        0,
		model.CategoryWet:        0,
		model.CategoryElectronic: 0,
	}
}

// Record prepends the event to history, evicting the oldest entry once the
// capacity is exceeded, and updates all counters.
func (a *Aggregator) Record(ev model.DetectionEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = append([]model.DetectionEvent{ev}, a.history...)
	if len(a.history) > a.capacity {
		a.history = a.history[:a.capacity]
	}

	a.total++
	for _, obj := range ev.Objects {
		if c := waste.Normalize(obj.Class); c != model.CategoryNone {
			a.byClass[c]++
		}
	}
	if ev.Count > 1 {
		a.multi++
	}
	if ev.Destination == "processing" {
		a.routed++
	}
}

// Snapshot returns a read-only copy of the counters, including the derived
// processing-chamber percentage (0 when nothing has been recorded).
func (a *Aggregator) Snapshot() model.StatsSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	byClass := make(map[model.Category]int64, len(a.byClass))
	for k, v := range a.byClass {
		byClass[k] = v
	}
	var pct float64
	if a.total > 0 {
		pct = float64(a.routed) / float64(a.total) * 100
	}
	return model.StatsSnapshot{
		TotalDetections:      a.total,
		ByClass:              byClass,
		MultiObjectEvents:    a.multi,
		ProcessingRouted:     a.routed,
		ProcessingPercentage: pct,
	}
}

// History returns up to limit events, newest first. A non-positive limit
// returns the whole retained history.
func (a *Aggregator) History(limit int) []model.DetectionEvent {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n := len(a.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.DetectionEvent, n)
	copy(out, a.history[:n])
	return out
}

// Reset zeroes all counters. History is untouched.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total, a.multi, a.routed = 0, 0, 0
	a.byClass = emptyByClass()
}

// ClearHistory empties the history buffer. Counters are untouched.
func (a *Aggregator) ClearHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}
