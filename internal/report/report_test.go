package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"batch-resizer/internal/batch"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSummary_NoFailures(t *testing.T) {
	res := &batch.Result{
		ID:        uuid.MustParse("6f1c1f8e-1d2b-4f8a-9c6e-0d7a5b3e2c10"),
		Total:     3,
		Processed: 3,
		Duration:  1500 * time.Millisecond,
		Workers:   1,
		Strategy:  batch.StrategySequential,
		Bytes:     2048,
	}

	out := Summary(res, 0)
	assert.Contains(t, out, "6f1c1f8e-1d2b-4f8a-9c6e-0d7a5b3e2c10")
	assert.Contains(t, out, "Processed:    3")
	assert.Contains(t, out, "Written:      2.0 KiB")
	assert.Contains(t, out, "Duration:     1.5s")
	assert.Contains(t, out, "sequential (1 worker)")
	assert.NotContains(t, out, "Failed files")
}

func TestSummary_TruncatesFailureList(t *testing.T) {
	res := &batch.Result{Total: 8, Processed: 1, Failed: 7, Workers: 4, Strategy: batch.StrategyParallel}
	for i := 0; i < 7; i++ {
		res.Failures = append(res.Failures, batch.FileError{
			Path:   fmt.Sprintf("/photos/img%d.jpg", i),
			Reason: "decode failed",
		})
	}

	out := Summary(res, 5)
	assert.Contains(t, out, "parallel (4 workers)")
	assert.Contains(t, out, "  - img0.jpg: decode failed")
	assert.Contains(t, out, "  - img4.jpg: decode failed")
	assert.NotContains(t, out, "img5.jpg")
	assert.Contains(t, out, "... and 2 more failed files")
}

func TestSummary_TruncatesLongReasons(t *testing.T) {
	res := &batch.Result{Total: 1, Failed: 1, Failures: []batch.FileError{
		{Path: "a.png", Reason: strings.Repeat("x", 500)},
	}}

	out := Summary(res, 5)
	line := ""
	for _, l := range strings.Split(out, "\n") {
		if strings.HasPrefix(l, "  - a.png") {
			line = l
		}
	}
	assert.Equal(t, MaxReasonLength, len([]rune(strings.TrimPrefix(line, "  - a.png: "))))
	assert.True(t, strings.HasSuffix(line, "…"))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"too long text", 5, "too …"},
		{"héllo wörld", 4, "hél…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in, tt.n), "Truncate(%q, %d)", tt.in, tt.n)
	}
}

func TestFileList(t *testing.T) {
	assert.Equal(t, "No files selected\n", FileList(batch.Validation{}))

	out := FileList(batch.Validation{
		Valid:     []string{"a.png", "b.jpg"},
		Invalid:   []batch.FileError{{Path: "c.txt", Reason: "unsupported format"}},
		TotalSize: 3 * 1024 * 1024,
	})
	assert.Contains(t, out, "Total files:  3")
	assert.Contains(t, out, "Valid files:  2")
	assert.Contains(t, out, "Invalid:      1")
	assert.Contains(t, out, "Total size:   3.0 MiB")
}
