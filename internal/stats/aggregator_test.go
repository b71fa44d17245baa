package stats

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ecosort/smartbin/internal/model"
)

func TestAggregator_Counters(t *testing.T) {
	t.Parallel()
	a := NewAggregator(10)

	a.Record(model.DetectionEvent{
		Count:       2,
		Objects:     []model.DetectedObject{{Class: "plastic"}, {Class: "e-waste"}},
		Destination: "processing",
	})
	a.Record(model.DetectionEvent{
		Count:       1,
		Objects:     []model.DetectedObject{{Class: "organic"}},
		Destination: "wet",
	})
	a.Record(model.DetectionEvent{
		Count:       1,
		Objects:     []model.DetectedObject{{Class: "cardboard"}}, // unrecognized, ignored
		Destination: "none",
	})

	s := a.Snapshot()
	require.Equal(t, int64(3), s.TotalDetections)
	require.Equal(t, int64(1), s.ByClass[model.CategoryDry])
	require.Equal(t, int64(1), s.ByClass[model.CategoryElectronic])
	require.Equal(t, int64(1), s.ByClass[model.CategoryWet])
	require.Equal(t, int64(1), s.MultiObjectEvents)
	require.Equal(t, int64(1), s.ProcessingRouted)
	require.InDelta(t, 100.0/3.0, s.ProcessingPercentage, 1e-9)
}

func TestAggregator_EmptySnapshot(t *testing.T) {
	t.Parallel()
	s := NewAggregator(0).Snapshot()
	require.Zero(t, s.TotalDetections)
	require.Zero(t, s.ProcessingPercentage)
}

func TestAggregator_HistoryBoundEviction(t *testing.T) {
	t.Parallel()
	const capacity = 5
	a := NewAggregator(capacity)

	for i := 0; i <= capacity; i++ { // capacity+1 inserts
		a.Record(model.DetectionEvent{Timestamp: fmt.Sprintf("t%d", i)})
	}

	h := a.History(0)
	require.Len(t, h, capacity)
	// Newest first; the very first event (t0) must have been evicted.
	for i, ev := range h {
		require.Equal(t, fmt.Sprintf("t%d", capacity-i), ev.Timestamp)
	}

	limited := a.History(2)
	require.Len(t, limited, 2)
	require.Equal(t, fmt.Sprintf("t%d", capacity), limited[0].Timestamp)
}

func TestAggregator_ResetAndClearAreIndependent(t *testing.T) {
	t.Parallel()
	a := NewAggregator(10)
	a.Record(model.DetectionEvent{Count: 2, Destination: "processing"})

	a.Reset()
	require.Zero(t, a.Snapshot().TotalDetections)
	require.Len(t, a.History(0), 1, "Reset must not clear history")

	a.Record(model.DetectionEvent{})
	a.ClearHistory()
	require.Empty(t, a.History(0))
	require.Equal(t, int64(1), a.Snapshot().TotalDetections, "ClearHistory must not reset counters")
}

func TestAggregator_ConcurrentRecordAndSnapshot(t *testing.T) {
	t.Parallel()
	a := NewAggregator(16)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Record(model.DetectionEvent{Count: 2, Destination: "processing"})
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := a.Snapshot()
			// A snapshot must never be torn: processing count tracks total here.
			require.Equal(t, s.TotalDetections, s.ProcessingRouted)
			a.History(5)
		}()
	}
	wg.Wait()

	require.Equal(t, int64(32), a.Snapshot().TotalDetections)
	require.Len(t, a.History(0), 16)
}
