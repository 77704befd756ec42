package importer

import (
	"context"
	"sync"
	"time"
)

// FailurePolicy governs what a batch failure does to the rest of the run.
// The policy is an explicit option per run rather than an implicit
// property of the import mode.
type FailurePolicy string

const (
	// FailFast aborts the remaining batches on the first batch failure.
	// A bulk-endpoint failure is usually systemic, so sequential file
	// imports default to this.
	FailFast FailurePolicy = "fail_fast"

	// ContinueOnError records the failure and keeps going. Per-URL work
	// defaults to this: one bad URL should not sink the rest.
	ContinueOnError FailurePolicy = "continue_on_error"
)

// BatchSubmitFunc performs the network create call for one batch and
// returns the created count.
type BatchSubmitFunc func(ctx context.Context, batch []NormalizedItem) (int, error)

// URLWorkFunc processes one URL end to end (fetch, analyze, create) and
// returns the identifier to record.
type URLWorkFunc func(ctx context.Context, url string) error

// BatchSubmitter drives normalized records through the catalog in fixed
// size batches, feeding the progress tracker and the result as it goes.
type BatchSubmitter struct {
	BatchSize  int
	PoolSize   int
	GroupDelay time.Duration
	Policy     FailurePolicy

	Tracker *ProgressTracker
	Result  *ImportResult
}

// SubmitSequential processes batches strictly in order. The start of
// every batch is a cancellation checkpoint; a cancellation observed
// there stops the run without rolling back completed batches. Under
// FailFast a batch failure aborts the remaining batches and is returned.
func (s *BatchSubmitter) SubmitSequential(ctx context.Context, items []NormalizedItem, submit BatchSubmitFunc) error {
	batches := chunkItems(items, s.BatchSize)

	for i, batch := range batches {
		if ctx.Err() != nil {
			s.markCancelled()
			return nil
		}

		start := time.Now()
		// In-flight work is allowed to finish even if the run is
		// cancelled mid-request; only checkpoints observe cancellation.
		created, err := submit(context.WithoutCancel(ctx), batch)
		elapsed := time.Since(start)

		if err != nil {
			for _, item := range batch {
				s.Result.addFailure(item.Title, err)
			}
			s.Tracker.Record(i, len(batch), elapsed)
			if s.Policy == FailFast {
				return err
			}
			continue
		}

		_ = created
		for _, item := range batch {
			s.Result.addSuccess(item.Title)
		}
		s.Tracker.Record(i, len(batch), elapsed)
	}

	return nil
}

// SubmitURLGroups slices URLs into batches of BatchSize for progress
// accounting and drives each batch in concurrent groups of PoolSize.
// Within a group all members run concurrently and are joined before the
// next group starts; a short delay between groups keeps load off the
// downstream service. Result order follows completion order, which
// depends on per-URL latency. A single URL failure never aborts the
// group. BatchSize <= 0 treats the whole list as one batch.
func (s *BatchSubmitter) SubmitURLGroups(ctx context.Context, urls []string, work URLWorkFunc) error {
	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = len(urls)
	}
	batches := chunkStrings(urls, batchSize)

	for bi, batch := range batches {
		if ctx.Err() != nil {
			s.markCancelled()
			return nil
		}

		start := time.Now()
		attempted := 0
		groups := chunkStrings(batch, s.PoolSize)
		for gi, group := range groups {
			// Per-group cancellation checkpoint.
			if ctx.Err() != nil {
				break
			}
			attempted += s.runGroup(ctx, group, work)

			last := bi == len(batches)-1 && gi == len(groups)-1
			if !last && s.GroupDelay > 0 {
				select {
				case <-ctx.Done():
					// next checkpoint reports the cancellation
				case <-time.After(s.GroupDelay):
				}
			}
		}
		s.Tracker.Record(bi, attempted, time.Since(start))

		if ctx.Err() != nil {
			s.markCancelled()
			return nil
		}
	}

	return nil
}

// runGroup fans a group out, joins it, and folds outcomes into the
// result in completion order. Returns how many URLs were attempted.
func (s *BatchSubmitter) runGroup(ctx context.Context, group []string, work URLWorkFunc) int {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		attempted int
	)

	for _, u := range group {
		// Per-task cancellation checkpoint: once the flag is observed,
		// no further submissions are issued.
		if ctx.Err() != nil {
			break
		}
		attempted++

		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			err := work(context.WithoutCancel(ctx), target)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.Result.addFailure(target, err)
			} else {
				s.Result.addSuccess(target)
			}
		}(u)
	}

	wg.Wait()
	return attempted
}

func (s *BatchSubmitter) markCancelled() {
	s.Result.Cancelled = true
	s.Tracker.Freeze()
}

func chunkItems(items []NormalizedItem, size int) [][]NormalizedItem {
	if size <= 0 {
		size = 1
	}
	var chunks [][]NormalizedItem
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

func chunkStrings(values []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var chunks [][]string
	for start := 0; start < len(values); start += size {
		end := start + size
		if end > len(values) {
			end = len(values)
		}
		chunks = append(chunks, values[start:end])
	}
	return chunks
}
