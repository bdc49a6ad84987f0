// Package stats aggregates frame arrivals into throughput snapshots.
package stats

import (
	"sync"
	"time"

	"can-monitor/internal/models"
)

// ReportInterval is the minimum time between two emitted snapshots.
const ReportInterval = 3 * time.Second

// Aggregator counts accepted frames and derives the message rate since start.
type Aggregator struct {
	mu         sync.Mutex
	source     string
	start      time.Time
	lastReport time.Time
	total      uint64
}

// New creates an aggregator whose window starts at start.
func New(source string, start time.Time) *Aggregator {
	return &Aggregator{
		source:     source,
		start:      start,
		lastReport: start,
	}
}

// RecordArrival counts one accepted frame.
func (a *Aggregator) RecordArrival() {
	a.mu.Lock()
	a.total++
	a.mu.Unlock()
}

// Total returns the number of frames recorded so far.
func (a *Aggregator) Total() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

// MaybeSnapshot returns a snapshot if at least ReportInterval has passed
// since the last report, and moves the report window to now.
func (a *Aggregator) MaybeSnapshot(now time.Time) (models.StatsSnapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if now.Sub(a.lastReport) < ReportInterval {
		return models.StatsSnapshot{}, false
	}
	a.lastReport = now
	return a.snapshotLocked(now), true
}

// Snapshot returns the current figures without touching the report window.
func (a *Aggregator) Snapshot(now time.Time) models.StatsSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked(now)
}

func (a *Aggregator) snapshotLocked(now time.Time) models.StatsSnapshot {
	elapsed := now.Sub(a.start)
	return models.StatsSnapshot{
		Timestamp:         now,
		Source:            a.source,
		TotalMessages:     a.total,
		Elapsed:           elapsed,
		MessagesPerSecond: Rate(a.total, elapsed),
	}
}

// Rate divides count by elapsed seconds. A non-positive elapsed time yields 0.
func Rate(count uint64, elapsed time.Duration) float64 {
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(count) / seconds
}
