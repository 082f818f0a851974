package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"time"

	"batch-resizer/internal/filesystem"
	"batch-resizer/internal/logging"
	"batch-resizer/internal/media"
	"batch-resizer/internal/mediatypes"
	"batch-resizer/internal/metrics"
)

// ProcessImage decodes task.Input, resizes it and writes task.Output.
// Every failure, including a panic, is reported in the returned outcome.
// ProcessImage keeps no state between calls and is safe for concurrent use.
func ProcessImage(ctx context.Context, task Task) (outcome TaskOutcome) {
	start := time.Now()
	outcome = TaskOutcome{Input: task.Input, Output: task.Output}
	format := mediatypes.FormatOf(task.Input)

	defer func() {
		if r := recover(); r != nil {
			logging.Error("panic processing %s: %v\n%s", task.Input, r, debug.Stack())
			outcome.fail(newTaskError(KindInternal, task.Input, fmt.Errorf("panic: %v", r), nil))
		}
		outcome.Duration = time.Since(start)
		observeTask(format, outcome)
	}()

	n, err := processImage(ctx, task)
	if err != nil {
		logging.Debug("Failed to process %s: %v", task.Input, err)
		outcome.fail(err)
		return outcome
	}

	outcome.Success = true
	outcome.Bytes = n
	return outcome
}

func processImage(ctx context.Context, task Task) (int64, error) {
	if !mediatypes.IsSupported(task.Input) {
		return 0, newTaskError(KindUnsupported, task.Input, ErrUnsupportedFormat, nil)
	}
	if err := ctx.Err(); err != nil {
		return 0, newTaskError(KindInternal, task.Input, err, nil)
	}

	phase := time.Now()
	img, err := media.Decode(task.Input)
	observePhase("decode", phase)
	if err != nil {
		return 0, newTaskError(KindDecode, task.Input, ErrDecode, err)
	}

	phase = time.Now()
	resized, err := media.Resize(media.Flatten(img), task.Size, task.Mode)
	observePhase("resize", phase)
	if err != nil {
		return 0, newTaskError(KindInternal, task.Input, err, nil)
	}

	if err := ctx.Err(); err != nil {
		return 0, newTaskError(KindInternal, task.Input, err, nil)
	}

	if err := filesystem.MkdirAllWithRetry(filepath.Dir(task.Output), 0o755, filesystem.DefaultRetryConfig()); err != nil {
		return 0, newTaskError(KindEncode, task.Input, ErrEncode, err)
	}

	phase = time.Now()
	n, err := media.Save(resized, task.Output, media.ClampQuality(task.Quality))
	observePhase("encode", phase)
	if err != nil {
		return 0, newTaskError(KindEncode, task.Input, ErrEncode, err)
	}

	return n, nil
}

func (o *TaskOutcome) fail(err error) {
	o.Success = false
	o.Bytes = 0
	o.Error = err.Error()
	o.Kind = kindOf(err)
}

func observePhase(phase string, start time.Time) {
	metrics.TaskPhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}

func observeTask(format mediatypes.Format, outcome TaskOutcome) {
	status := "success"
	if !outcome.Success {
		status = outcome.Kind.metricStatus()
	}
	metrics.TaskOutcomesTotal.WithLabelValues(string(format), status).Inc()
	metrics.TaskDuration.WithLabelValues(string(format)).Observe(outcome.Duration.Seconds())
	if outcome.Bytes > 0 {
		metrics.TaskBytesWritten.Add(float64(outcome.Bytes))
	}
}
