package batch

import (
	"context"

	"batch-resizer/internal/metrics"
)

// RunSequential processes req.Files one at a time in input order on the
// calling goroutine. Progress is reported after every file, including
// unsupported ones. A cancelled ctx aborts the run and returns ctx.Err().
func RunSequential(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	metrics.BatchesInFlight.Inc()
	defer metrics.BatchesInFlight.Dec()

	b := newBatchRun(req)
	return b.runSequential(ctx, StrategySequential)
}

func (b *batchRun) runSequential(ctx context.Context, strategy Strategy) (*Result, error) {
	b.transition(stateRunning)
	metrics.BatchWorkers.Set(1)

	t := newTally(len(b.items))
	for _, it := range b.items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var outcome TaskOutcome
		if it.supported {
			if err := b.req.admit(ctx); err != nil {
				return nil, err
			}
			outcome = ProcessImage(ctx, b.task(it))
		} else {
			outcome = unsupportedOutcome(it)
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.req.progress(t.record(it, outcome))
	}

	return b.result(t, strategy, 1), nil
}
