package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"BatchRunsTotal", BatchRunsTotal},
		{"BatchDuration", BatchDuration},
		{"BatchFilesTotal", BatchFilesTotal},
		{"BatchFallbacksTotal", BatchFallbacksTotal},
		{"BatchWorkers", BatchWorkers},
		{"BatchesInFlight", BatchesInFlight},
		{"BatchLastRunTimestamp", BatchLastRunTimestamp},
		{"TaskOutcomesTotal", TaskOutcomesTotal},
		{"TaskDuration", TaskDuration},
		{"TaskPhaseDuration", TaskPhaseDuration},
		{"TaskBytesWritten", TaskBytesWritten},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.metric)
		})
	}
}

func TestInitializeMetricsPrepopulatesLabels(t *testing.T) {
	InitializeMetrics()

	// Every strategy and format label exists before any batch has run.
	assert.Equal(t, 3, testutil.CollectAndCount(BatchRunsTotal))
	assert.Equal(t, 3, testutil.CollectAndCount(BatchFilesTotal))
	assert.Equal(t, 30, testutil.CollectAndCount(TaskOutcomesTotal))
	assert.Equal(t, 9, testutil.CollectAndCount(FilesystemStaleErrors))
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.2.3", "abc123", "go1.25")

	assert.Equal(t, float64(1), testutil.ToFloat64(AppInfo.WithLabelValues("1.2.3", "abc123", "go1.25")))
}

func TestFilesystemObserver(t *testing.T) {
	obs := NewFilesystemObserver()

	before := testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("open", "input"))
	obs.ObserveRetryAttempt("open", "input")
	obs.ObserveRetryAttempt("open", "input")
	after := testutil.ToFloat64(FilesystemRetryAttempts.WithLabelValues("open", "input"))

	assert.Equal(t, before+2, after)

	staleBefore := testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("stat", "output"))
	obs.ObserveStaleError("stat", "output")
	assert.Equal(t, staleBefore+1, testutil.ToFloat64(FilesystemStaleErrors.WithLabelValues("stat", "output")))
}

func TestWriteTextfile(t *testing.T) {
	InitializeMetrics()
	BatchFallbacksTotal.Inc()

	path := filepath.Join(t.TempDir(), "resizer.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.True(t, strings.Contains(content, "resizer_batch_fallbacks_total"))
	assert.True(t, strings.Contains(content, "resizer_batch_runs_total{strategy=\"parallel\"}"))
}

func TestWriteTextfileBadPath(t *testing.T) {
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "resizer.prom"))
	assert.Error(t, err)
}
