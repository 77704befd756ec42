package importer

import (
	"sync"
	"time"
)

// ProgressSnapshot is a point-in-time view of a running import. All
// derived metrics are recomputed from the recorded batch history on
// every read, never maintained incrementally.
type ProgressSnapshot struct {
	TotalItems       int           `json:"total_items"`
	ItemsProcessed   int           `json:"items_processed"`
	CurrentBatch     int           `json:"current_batch"`
	CompletedBatches int           `json:"completed_batches"`
	TotalBatches     int           `json:"total_batches"`
	Elapsed          time.Duration `json:"elapsed_ms"`
	AvgBatchDuration time.Duration `json:"avg_batch_duration_ms"`
	ETA              time.Duration `json:"eta_ms"`
	ThroughputPerSec float64       `json:"throughput_per_sec"`
}

// ProgressTracker maintains the running counters of one import run.
// It is written only by the run's driver goroutine and read by the
// status endpoint, so a mutex guards the snapshot boundary.
type ProgressTracker struct {
	mu sync.Mutex

	totalItems   int
	totalBatches int
	startedAt    time.Time
	frozenAt     time.Time

	itemsProcessed int
	currentBatch   int
	durations      []time.Duration

	now func() time.Time
}

func NewProgressTracker(totalItems, totalBatches int) *ProgressTracker {
	t := &ProgressTracker{
		totalItems:   totalItems,
		totalBatches: totalBatches,
		now:          time.Now,
	}
	t.startedAt = t.now()
	return t
}

// reconfigure sets the totals once they become known, e.g. after the
// deduplication filter has trimmed a URL list.
func (t *ProgressTracker) reconfigure(totalItems, totalBatches int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalItems = totalItems
	t.totalBatches = totalBatches
}

// Record folds one completed unit of work into the history.
func (t *ProgressTracker) Record(batchIndex, itemsThisBatch int, elapsed time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentBatch = batchIndex
	t.itemsProcessed += itemsThisBatch
	t.durations = append(t.durations, elapsed)
}

// Freeze stops the elapsed clock; further snapshots report the state at
// the moment of freezing. Called on cancellation and completion.
func (t *ProgressTracker) Freeze() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozenAt.IsZero() {
		t.frozenAt = t.now()
	}
}

// Snapshot recomputes every derived metric from the full history.
func (t *ProgressTracker) Snapshot() ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	end := t.frozenAt
	if end.IsZero() {
		end = t.now()
	}
	elapsed := end.Sub(t.startedAt)

	var avg time.Duration
	if len(t.durations) > 0 {
		var total time.Duration
		for _, d := range t.durations {
			total += d
		}
		avg = total / time.Duration(len(t.durations))
	}

	remaining := t.totalBatches - len(t.durations)
	if remaining < 0 {
		remaining = 0
	}
	eta := time.Duration(remaining) * avg

	var throughput float64
	if secs := elapsed.Seconds(); secs > 0 {
		throughput = float64(t.itemsProcessed) / secs
	}

	return ProgressSnapshot{
		TotalItems:       t.totalItems,
		ItemsProcessed:   t.itemsProcessed,
		CurrentBatch:     t.currentBatch,
		CompletedBatches: len(t.durations),
		TotalBatches:     t.totalBatches,
		Elapsed:          elapsed,
		AvgBatchDuration: avg,
		ETA:              eta,
		ThroughputPerSec: throughput,
	}
}
