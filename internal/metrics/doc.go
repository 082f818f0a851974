// Package metrics declares the Prometheus metrics exported by the resizer.
//
// All metrics are registered on the default registry via promauto and use the
// "resizer_" prefix. They fall into four groups:
//
//   - Batch: runs per strategy, wall-clock duration, files by result,
//     fallbacks, worker count, in-flight batches
//   - Task: per-format outcomes and durations, phase timings
//     (decode/resize/encode), bytes written
//   - HTTP: request counts, durations, and in-flight gauge for the serve mode
//   - Filesystem: stale-handle retry counters, recorded through the
//     filesystem.Observer implemented in observer.go
//
// The serve mode exposes the registry on /metrics. One-shot CLI runs can
// write it to a file for node_exporter's textfile collector with
// WriteTextfile (RESIZER_METRICS_TEXTFILE).
//
// Call InitializeMetrics once at startup so every label combination is
// exported from the first scrape.
package metrics
