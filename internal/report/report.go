package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"batch-resizer/internal/batch"

	"github.com/dustin/go-humanize"
)

const (
	// DefaultMaxFailures is how many failures Summary lists by default.
	DefaultMaxFailures = 5
	// MaxReasonLength bounds each failure reason in a summary, in runes.
	MaxReasonLength = 120
)

// Summary renders a finished batch for people. At most maxFailures failures
// are listed (DefaultMaxFailures when maxFailures <= 0); the rest are
// counted.
func Summary(res *batch.Result, maxFailures int) string {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Batch %s complete\n\n", res.ID)
	fmt.Fprintf(&b, "Total files:  %d\n", res.Total)
	fmt.Fprintf(&b, "Processed:    %d\n", res.Processed)
	fmt.Fprintf(&b, "Failed:       %d\n", res.Failed)
	fmt.Fprintf(&b, "Written:      %s\n", humanize.IBytes(uint64(res.Bytes)))
	fmt.Fprintf(&b, "Duration:     %s\n", res.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "Strategy:     %s (%d %s)\n", res.Strategy, res.Workers, plural(res.Workers, "worker", "workers"))

	if len(res.Failures) == 0 {
		return b.String()
	}

	b.WriteString("\nFailed files:\n")
	for i, f := range res.Failures {
		if i == maxFailures {
			rest := len(res.Failures) - maxFailures
			fmt.Fprintf(&b, "... and %d more failed %s\n", rest, plural(rest, "file", "files"))
			break
		}
		fmt.Fprintf(&b, "  - %s: %s\n", filepath.Base(f.Path), Truncate(f.Reason, MaxReasonLength))
	}
	return b.String()
}

// FileList renders a pre-run validation of the selected files.
func FileList(v batch.Validation) string {
	total := len(v.Valid) + len(v.Invalid)
	if total == 0 {
		return "No files selected\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total files:  %d\n", total)
	fmt.Fprintf(&b, "Valid files:  %d\n", len(v.Valid))
	fmt.Fprintf(&b, "Invalid:      %d\n", len(v.Invalid))
	fmt.Fprintf(&b, "Total size:   %s\n", humanize.IBytes(uint64(v.TotalSize)))
	return b.String()
}

// Truncate shortens s to at most n runes, ending with an ellipsis when cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
