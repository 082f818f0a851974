package batch

import (
	"context"
	"errors"
	"fmt"

	"batch-resizer/internal/logging"
	"batch-resizer/internal/metrics"
	"batch-resizer/internal/workers"

	"golang.org/x/sync/errgroup"
)

// RunParallel processes req.Files on a fixed pool of req.Workers workers
// (workers.DefaultPoolSize when zero). Unsupported files are recorded
// before any work is submitted. Outcomes are consumed in completion order
// on the calling goroutine, so req.Progress is never called concurrently.
//
// If the pool cannot start or breaks while running, partial results are
// discarded and the whole batch is rerun sequentially; the Result then
// reports StrategyFallback with one worker and progress restarts from the
// first file.
func RunParallel(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	metrics.BatchesInFlight.Inc()
	defer metrics.BatchesInFlight.Dec()

	b := newBatchRun(req)

	jobs := 0
	for _, it := range b.items {
		if it.supported {
			jobs++
		}
	}
	size := workers.Resolve(req.Workers, jobs)

	res, err := b.runParallel(ctx, size)
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if !errors.Is(err, ErrPoolInit) {
		return nil, err
	}

	logging.Warn("Batch %s: worker pool failed, rerunning sequentially: %v", b.id, err)
	metrics.BatchFallbacksTotal.Inc()
	b.transition(stateFallingBack)
	return b.runSequential(ctx, StrategyFallback)
}

type completion struct {
	item    item
	outcome TaskOutcome
}

func (b *batchRun) runParallel(ctx context.Context, size int) (res *Result, err error) {
	backend := b.req.Backend
	if backend == nil {
		backend = InProcess{}
	}

	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: backend panic: %v", ErrPoolInit, r)
		}
	}()

	if err := backend.Start(ctx, size); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPoolInit, err)
	}
	defer func() {
		if cerr := backend.Close(); cerr != nil {
			logging.Warn("Batch %s: failed to close backend: %v", b.id, cerr)
		}
	}()

	b.transition(stateRunning)
	metrics.BatchWorkers.Set(float64(size))
	logging.Debug("Batch %s: starting %d workers", b.id, size)

	t := newTally(len(b.items))
	var pending []item
	for _, it := range b.items {
		if !it.supported {
			b.req.progress(t.record(it, unsupportedOutcome(it)))
			continue
		}
		pending = append(pending, it)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(size)

	completions := make(chan completion, size)
	var groupErr, admitErr error

	// Submitter: g.Go blocks once size tasks are in flight.
	go func() {
		defer close(completions)
		for _, it := range pending {
			if gctx.Err() != nil {
				break
			}
			if err := b.req.admit(gctx); err != nil {
				admitErr = err
				break
			}
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("%w: backend panic: %v", ErrPoolInit, r)
					}
				}()

				outcome, err := backend.Execute(gctx, b.task(it))
				if err != nil {
					return fmt.Errorf("%w: %w", ErrPoolInit, err)
				}
				select {
				case completions <- completion{item: it, outcome: outcome}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		groupErr = g.Wait()
		if groupErr == nil {
			groupErr = admitErr
		}
	}()

	// Collector runs on the caller's goroutine.
	for c := range completions {
		b.req.progress(t.record(c.item, c.outcome))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if groupErr != nil {
		return nil, groupErr
	}

	return b.result(t, StrategyParallel, size), nil
}
