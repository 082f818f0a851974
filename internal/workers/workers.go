package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride is the environment variable that pins the worker count.
const EnvOverride = "RESIZER_WORKERS"

// Count returns the number of workers for a given task type.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier scales GOMAXPROCS; the default batch pool uses 0.5.
// The limit parameter caps the worker count. Use 0 for no limit.
//
// Can be overridden with the RESIZER_WORKERS environment variable.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// DefaultPoolSize returns the default batch pool size: half the available
// parallelism, never less than one.
func DefaultPoolSize() int {
	return Count(0.5, 0)
}

// Resolve returns requested when positive, otherwise DefaultPoolSize.
// The result is capped at jobs when jobs is positive, since idle workers
// would never receive a task.
func Resolve(requested, jobs int) int {
	n := requested
	if n <= 0 {
		n = DefaultPoolSize()
	}
	if jobs > 0 && n > jobs {
		n = jobs
	}
	if n < 1 {
		n = 1
	}
	return n
}
