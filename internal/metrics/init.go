package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	strategies := []string{"sequential", "parallel", "fallback"}
	for _, s := range strategies {
		BatchRunsTotal.WithLabelValues(s)
		BatchDuration.WithLabelValues(s)
	}

	for _, status := range []string{"processed", "failed", "unsupported"} {
		BatchFilesTotal.WithLabelValues(status)
	}

	formats := []string{"jpeg", "png", "bmp", "tiff", "webp", "unknown"}
	statuses := []string{"success", "error_decode", "error_encode", "error_unsupported", "error"}
	for _, f := range formats {
		TaskDuration.WithLabelValues(f)
		for _, s := range statuses {
			TaskOutcomesTotal.WithLabelValues(f, s)
		}
	}

	for _, phase := range []string{"decode", "resize", "encode"} {
		TaskPhaseDuration.WithLabelValues(phase)
	}

	for _, op := range []string{"stat", "open", "mkdir"} {
		for _, vol := range []string{"input", "output", "unknown"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}
}

// WriteTextfile writes the default registry in the text exposition format to
// path, for node_exporter's textfile collector. One-shot CLI runs use this
// instead of serving /metrics.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
