// Package main provides the resizer command.
//
// resizer resizes batches of images to one target size. Each file is
// fitted with one of three modes: stretch, keep_ratio (white padding, never
// enlarged) or crop (centre crop). Files that fail are reported without
// stopping the batch.
//
// # Commands
//
//	resizer run [flags] <files or directories...>
//	resizer serve
//	resizer info <files...>
//	resizer worker
//	resizer version
//
// run expands each directory to the supported images directly inside it,
// prints a validation summary, resizes everything and prints a report. The
// exit status is 1 when any file failed and 130 when interrupted. A
// progress bar is drawn when stdout is a terminal; otherwise progress is
// logged.
//
// serve starts the HTTP API:
//
//	POST /api/batch          run a batch, respond with the result
//	POST /api/batch/stream   run a batch, stream NDJSON progress then the result
//	POST /api/validate       check a file selection
//	GET  /api/info?path=     inspect one image
//	GET  /api/formats        supported extensions and modes
//	GET  /health /livez /readyz /version /metrics
//
// worker reads one task as JSON from stdin and writes its outcome to
// stdout. It is started by run and serve when the subprocess backend is
// selected, and is not meant to be called directly.
//
// # Parallelism
//
// Batches run in parallel by default on a bounded worker pool sized from
// GOMAXPROCS (override with -workers or RESIZER_WORKERS). If the pool
// cannot be started the batch is run again sequentially; the result's
// strategy is then "fallback".
//
// # Environment Variables
//
//   - RESIZER_OUTPUT_DIR: Default output directory
//   - RESIZER_WIDTH, RESIZER_HEIGHT: Default target size (800x600)
//   - RESIZER_MODE: Default mode (keep_ratio)
//   - RESIZER_QUALITY: JPEG/WebP quality (95)
//   - RESIZER_WORKERS: Worker count (0 = automatic)
//   - RESIZER_PARALLEL: Parallel processing (true)
//   - RESIZER_COLLISION: overwrite or suffix (overwrite)
//   - RESIZER_BACKEND: inprocess or subprocess, for run and serve (inprocess)
//   - RESIZER_PORT: HTTP port (8080)
//   - RESIZER_ROOT_DIR: Confine HTTP paths to this directory
//   - RESIZER_METRICS_ENABLED: Serve /metrics (true)
//   - RESIZER_METRICS_TEXTFILE: Write metrics here after a run
//   - RESIZER_VIPS_ENABLED: Use libvips for WebP output (true)
//   - MEMORY_LIMIT, MEMORY_RATIO: Derive GOMEMLIMIT from a container limit
//   - LOG_LEVEL, LOG_FORMAT, LOG_FILE: Logging
//
// # Graceful Shutdown
//
// serve stops on SIGINT or SIGTERM, waiting up to RESIZER_SHUTDOWN_TIMEOUT
// for running batches before closing connections.
package main
