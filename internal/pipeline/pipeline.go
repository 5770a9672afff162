// Package pipeline runs the batched parallel gap scan: batch the source,
// fan batches out to a bounded worker pool, stitch the batch seams, and
// assemble the globally ordered report.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/voicetel/pcapgap/internal/gap"
	"github.com/voicetel/pcapgap/internal/report"
	"github.com/voicetel/pcapgap/internal/stats"
)

const DefaultBatchSize = 100000

type Config struct {
	// Threshold is the minimum elapsed time between index-adjacent
	// packets that counts as a gap. Must be positive.
	Threshold time.Duration

	// BatchSize is the maximum records per batch. Defaults to
	// DefaultBatchSize when zero.
	BatchSize int

	// Workers is the pool size. Defaults to runtime.NumCPU() when zero.
	Workers int
}

func (c *Config) validate() error {
	if c.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive, got %v", c.Threshold)
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Workers < 0 {
		return fmt.Errorf("worker count must be positive, got %d", c.Workers)
	}
	return nil
}

// WorkerError tags a scan failure with the batch it belonged to. The run
// drains its siblings before surfacing the failure; no partial report is
// emitted.
type WorkerError struct {
	BatchID int
	Err     error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("batch %d failed: %v", e.BatchID, e.Err)
}

func (e *WorkerError) Unwrap() error { return e.Err }

// batchResult is one worker's output. Results arrive in completion
// order, never assumed to match submission order.
type batchResult struct {
	id    int
	first gap.Record
	last  gap.Record
	count int
	gaps  []gap.Gap
	err   error
}

// Run scans the source and returns the finished report. A source with
// zero records yields an empty report and no error. Cancellation of ctx
// discards in-flight work and returns ctx.Err().
func Run(ctx context.Context, cfg Config, src gap.Source, log *zap.Logger, tracker *stats.Tracker) (*report.Report, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	batcher, err := gap.NewBatcher(src, cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Unbuffered feed: with W workers each holding at most one batch,
	// at most W batches are in flight and the producer blocks beyond
	// that.
	batches := make(chan gap.Batch)
	results := make(chan batchResult, cfg.Workers)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, cfg.Threshold, batches, results, tracker)
		}()
	}

	readErrCh := make(chan error, 1)
	go func() {
		defer close(batches)
		readErrCh <- produce(ctx, batcher, batches, tracker)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make(map[int]batchResult)
	var workerErrs error
	for res := range results {
		if res.err != nil {
			workerErrs = multierr.Append(workerErrs, &WorkerError{BatchID: res.id, Err: res.err})
			log.Error("batch scan failed", zap.Int("batch_id", res.id), zap.Error(res.err))
			continue
		}
		collected[res.id] = res
	}

	if err := <-readErrCh; err != nil {
		return nil, fmt.Errorf("reading capture: %w", err)
	}
	if workerErrs != nil {
		return nil, fmt.Errorf("scan aborted, %d of %d batches completed: %w",
			len(collected), len(collected)+len(multierr.Errors(workerErrs)), workerErrs)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ordered := orderResults(collected)

	rep := &report.Report{
		Threshold: cfg.Threshold,
		Gaps:      stitch(ordered, cfg.Threshold),
		Elapsed:   time.Since(start),
	}
	for _, res := range ordered {
		rep.TotalPackets += res.count
	}
	tracker.Incr(stats.GapsFound, uint64(len(rep.Gaps)))

	log.Info("scan complete",
		zap.Int("total_packets", rep.TotalPackets),
		zap.Int("batches", len(ordered)),
		zap.Int("gaps", len(rep.Gaps)),
		zap.Duration("elapsed", rep.Elapsed))

	return rep, nil
}

// produce reads batches sequentially and feeds the pool. Returns the
// source error, or nil on clean end of stream or cancellation.
func produce(ctx context.Context, batcher *gap.Batcher, batches chan<- gap.Batch, tracker *stats.Tracker) error {
	for {
		batch, err := batcher.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		tracker.Incr(stats.PacketsRead, uint64(len(batch.Records)))

		select {
		case batches <- batch:
			tracker.Incr(stats.BatchesDispatched, 1)
		case <-ctx.Done():
			return nil
		}
	}
}

func worker(ctx context.Context, threshold time.Duration, batches <-chan gap.Batch, results chan<- batchResult, tracker *stats.Tracker) {
	for batch := range batches {
		res := scanBatch(batch, threshold)
		if res.err == nil {
			tracker.Incr(stats.BatchesCompleted, 1)
		}

		select {
		case results <- res:
		case <-ctx.Done():
			return
		}
	}
}

// scanBatch wraps the per-batch scan so a failure in one batch is tagged
// and reported instead of taking down its siblings.
func scanBatch(batch gap.Batch, threshold time.Duration) (res batchResult) {
	defer func() {
		if r := recover(); r != nil {
			res.err = fmt.Errorf("scan panic: %v", r)
		}
	}()

	res.id = batch.ID
	if len(batch.Records) == 0 {
		res.err = fmt.Errorf("empty batch dispatched")
		return res
	}

	res.first = batch.First()
	res.last = batch.Last()
	res.count = len(batch.Records)
	res.gaps = gap.ScanBatch(batch, threshold)
	return res
}

// orderResults re-imposes batch order on the pool's unordered output.
// This is the single place completion order is reconciled with
// submission order.
func orderResults(collected map[int]batchResult) []batchResult {
	ordered := make([]batchResult, 0, len(collected))
	for _, res := range collected {
		ordered = append(ordered, res)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].id < ordered[j].id })
	return ordered
}

// stitch merges intra-batch gaps with the seam checks between each
// batch's last record and the next batch's first. Batches cover
// disjoint ascending index ranges, so interleaving seam gaps at batch
// boundaries yields the fully index-ordered gap list without a sort.
func stitch(ordered []batchResult, threshold time.Duration) []gap.Gap {
	var all []gap.Gap
	for i, res := range ordered {
		if i > 0 {
			if g, ok := gap.Between(ordered[i-1].last, res.first, threshold); ok {
				all = append(all, g)
			}
		}
		all = append(all, res.gaps...)
	}
	return all
}
