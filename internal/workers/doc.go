/*
Package workers sizes worker pools in containerized environments.

runtime.NumCPU() reports the host's CPUs, while GOMAXPROCS (Go 1.19+)
follows the container CPU limit. Every helper here is based on GOMAXPROCS.

# Basic Usage

	// Default batch pool: half the available CPUs, at least one
	n := workers.DefaultPoolSize()

	// Caller asked for 0 (auto) workers and has 3 files to resize
	n = workers.Resolve(0, 3)

	// One worker per CPU, at most 8
	n = workers.Count(1.0, 8)

# Environment Variable Override

RESIZER_WORKERS pins the count (still capped by limit):

	RESIZER_WORKERS=4 resizer run -parallel ...

Non-numeric or non-positive values are ignored.

# Thread Safety

All functions are safe for concurrent use.
*/
package workers
