package main

import (
	"context"
	"io"

	"batch-resizer/internal/batch"
	"batch-resizer/internal/logging"
	"batch-resizer/internal/startup"
)

// workerCommand serves a single task for the subprocess backend. Logs go
// to stderr, which the parent attaches to failures; stdout carries only
// the outcome.
func workerCommand(ctx context.Context, stdin io.Reader, stdout io.Writer) int {
	cfg, err := startup.Load()
	if err != nil {
		logging.Error("Configuration error: %v", err)
		return exitUsage
	}

	if cfg.VipsEnabled {
		if err := initVips(); err != nil {
			logging.Debug("libvips unavailable in worker: %v", err)
		}
		defer shutdownVips()
	}

	if err := batch.ServeWorker(ctx, stdin, stdout); err != nil {
		logging.Error("Worker failed: %v", err)
		return exitFailed
	}
	return exitOK
}
