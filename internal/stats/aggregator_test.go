package stats

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func TestAggregator_RecordArrival(t *testing.T) {
	a := New("sim", t0)
	assert.Equal(t, uint64(0), a.Total())

	for i := 0; i < 42; i++ {
		a.RecordArrival()
	}
	assert.Equal(t, uint64(42), a.Total())
}

func TestAggregator_RateIsTotalOverElapsed(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		elapsed time.Duration
		want    float64
	}{
		{name: "ten per second", count: 30, elapsed: 3 * time.Second, want: 10},
		{name: "fractional", count: 7, elapsed: 4500 * time.Millisecond, want: 7 / 4.5},
		{name: "no frames", count: 0, elapsed: 5 * time.Second, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New("sim", t0)
			for i := 0; i < tt.count; i++ {
				a.RecordArrival()
			}
			snap := a.Snapshot(t0.Add(tt.elapsed))
			assert.InDelta(t, tt.want, snap.MessagesPerSecond, 1e-9)
			assert.Equal(t, uint64(tt.count), snap.TotalMessages)
			assert.Equal(t, tt.elapsed, snap.Elapsed)
		})
	}
}

func TestAggregator_ZeroElapsedReportsZeroRate(t *testing.T) {
	a := New("sim", t0)
	a.RecordArrival()
	a.RecordArrival()

	snap := a.Snapshot(t0)
	assert.Equal(t, 0.0, snap.MessagesPerSecond)
	assert.False(t, math.IsNaN(snap.MessagesPerSecond))
	assert.False(t, math.IsInf(snap.MessagesPerSecond, 0))

	// A clock that went backwards is treated the same way.
	assert.Equal(t, 0.0, a.Snapshot(t0.Add(-time.Second)).MessagesPerSecond)
}

func TestAggregator_MaybeSnapshotCadence(t *testing.T) {
	a := New("sim", t0)
	a.RecordArrival()

	_, ok := a.MaybeSnapshot(t0.Add(time.Second))
	assert.False(t, ok, "too early for the first report")

	snap, ok := a.MaybeSnapshot(t0.Add(ReportInterval))
	require.True(t, ok)
	assert.Equal(t, uint64(1), snap.TotalMessages)
	assert.Equal(t, "sim", snap.Source)

	_, ok = a.MaybeSnapshot(t0.Add(ReportInterval + 2*time.Second))
	assert.False(t, ok, "second call within the window returns nothing")

	snap, ok = a.MaybeSnapshot(t0.Add(2 * ReportInterval))
	require.True(t, ok)
	assert.Equal(t, 2*ReportInterval, snap.Elapsed)

	_, ok = a.MaybeSnapshot(t0.Add(2*ReportInterval + time.Millisecond))
	assert.False(t, ok, "window was reset by the previous report")
}

func TestAggregator_SnapshotDoesNotMoveWindow(t *testing.T) {
	a := New("sim", t0)
	_ = a.Snapshot(t0.Add(5 * time.Second))

	_, ok := a.MaybeSnapshot(t0.Add(5 * time.Second))
	assert.True(t, ok)
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, Rate(10, 0))
	assert.Equal(t, 0.0, Rate(10, -time.Second))
	assert.InDelta(t, 2.5, Rate(5, 2*time.Second), 1e-12)
}
