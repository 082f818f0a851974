package batch

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"batch-resizer/internal/logging"
	"batch-resizer/internal/mediatypes"
	"batch-resizer/internal/metrics"

	"github.com/google/uuid"
)

// Run executes req sequentially or, when req.Parallel is set, on a worker
// pool.
func Run(ctx context.Context, req Request) (*Result, error) {
	if req.Parallel {
		return RunParallel(ctx, req)
	}
	return RunSequential(ctx, req)
}

type state string

const (
	stateIdle        state = "idle"
	stateFiltering   state = "filtering"
	stateRunning     state = "running"
	stateFallingBack state = "falling_back"
	stateCompleting  state = "completing"
	stateDone        state = "done"
)

// item is one input file with its assigned output path.
type item struct {
	index     int
	input     string
	output    string
	supported bool
}

// batchRun holds everything local to one execution of a Request. Nothing
// in it outlives the call that created it.
type batchRun struct {
	id    uuid.UUID
	req   Request
	items []item
	start time.Time
	state state
}

func newBatchRun(req Request) *batchRun {
	b := &batchRun{
		id:    uuid.New(),
		req:   req,
		start: time.Now(),
		state: stateIdle,
	}
	b.transition(stateFiltering)

	namer := newOutputNamer(req.OutputDir, req.Collision)
	b.items = make([]item, len(req.Files))
	for i, f := range req.Files {
		it := item{index: i, input: f, supported: mediatypes.IsSupported(f)}
		if it.supported {
			it.output = namer.next(f)
		}
		b.items[i] = it
	}
	return b
}

func (b *batchRun) transition(to state) {
	logging.Debug("batch %s: %s -> %s", b.id, b.state, to)
	b.state = to
}

func (b *batchRun) task(it item) Task {
	return b.req.task(it.input, it.output)
}

// tally accumulates per-file outcomes for one run.
type tally struct {
	total       int
	done        int
	processed   int
	failed      int
	unsupported int
	bytes       int64
	failures    []indexedFailure
}

type indexedFailure struct {
	index int
	FileError
}

func newTally(total int) *tally {
	return &tally{total: total}
}

// record adds one finished file and returns the progress event for it.
func (t *tally) record(it item, outcome TaskOutcome) Progress {
	t.done++
	if outcome.Success {
		t.processed++
		t.bytes += outcome.Bytes
	} else {
		t.failed++
		if outcome.Kind == KindUnsupported {
			t.unsupported++
		}
		t.failures = append(t.failures, indexedFailure{
			index:     it.index,
			FileError: FileError{Path: it.input, Reason: outcome.Error, Kind: outcome.Kind},
		})
	}

	return Progress{
		Percent: float64(t.done) / float64(t.total) * 100,
		File:    filepath.Base(it.input),
		Success: outcome.Success,
	}
}

func unsupportedOutcome(it item) TaskOutcome {
	return TaskOutcome{
		Input: it.input,
		Error: ErrUnsupportedFormat.Error(),
		Kind:  KindUnsupported,
	}
}

func (b *batchRun) result(t *tally, strategy Strategy, workers int) *Result {
	b.transition(stateCompleting)

	sort.SliceStable(t.failures, func(i, j int) bool {
		return t.failures[i].index < t.failures[j].index
	})
	failures := make([]FileError, len(t.failures))
	for i, f := range t.failures {
		failures[i] = f.FileError
	}

	res := &Result{
		ID:        b.id,
		Total:     t.total,
		Processed: t.processed,
		Failed:    t.failed,
		Failures:  failures,
		Duration:  time.Since(b.start),
		Workers:   workers,
		Strategy:  strategy,
		Bytes:     t.bytes,
	}

	metrics.BatchRunsTotal.WithLabelValues(string(strategy)).Inc()
	metrics.BatchDuration.WithLabelValues(string(strategy)).Observe(res.Duration.Seconds())
	metrics.BatchFilesTotal.WithLabelValues("processed").Add(float64(t.processed))
	metrics.BatchFilesTotal.WithLabelValues("failed").Add(float64(t.failed - t.unsupported))
	metrics.BatchFilesTotal.WithLabelValues("unsupported").Add(float64(t.unsupported))
	metrics.BatchLastRunTimestamp.SetToCurrentTime()

	logging.Info("Batch %s complete (%s, %d workers): %d processed, %d failed of %d in %v",
		res.ID, strategy, workers, res.Processed, res.Failed, res.Total, res.Duration)

	b.transition(stateDone)
	return res
}
