// Package startup loads configuration and handles startup and shutdown
// logging.
//
// # Configuration
//
// [Load] reads environment variables prefixed with RESIZER_ using envconfig
// and validates them:
//
//   - RESIZER_OUTPUT_DIR: Default output directory
//   - RESIZER_WIDTH, RESIZER_HEIGHT: Default target size (default: 800x600)
//   - RESIZER_MODE: stretch, keep_ratio or crop (default: keep_ratio)
//   - RESIZER_QUALITY: JPEG/WebP quality 1-100 (default: 95)
//   - RESIZER_WORKERS: Parallel pool size, 0 for half the CPUs (default: 0)
//   - RESIZER_PARALLEL: Use the worker pool (default: true)
//   - RESIZER_COLLISION: overwrite or suffix (default: overwrite)
//   - RESIZER_PORT: HTTP server port (default: 8080)
//   - RESIZER_ROOT_DIR: Confine HTTP requests to this directory
//   - RESIZER_METRICS_ENABLED: Serve /metrics (default: true)
//   - RESIZER_METRICS_TEXTFILE: Write metrics here after CLI runs
//   - RESIZER_VIPS_ENABLED: Initialize libvips for WebP output (default: true)
//   - MEMORY_LIMIT, MEMORY_RATIO: Container limit and heap share for GOMEMLIMIT
//
// Logging is configured separately by the logging package (LOG_LEVEL,
// LOG_FORMAT, LOG_FILE).
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed via
// [GetBuildInfo].
package startup
