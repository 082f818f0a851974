package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// ServeWorker reads one Task as JSON from r, processes it and writes the
// TaskOutcome as a single JSON line to w. A task that fails to resize is
// not an error; only malformed input or a failed write is.
func ServeWorker(ctx context.Context, r io.Reader, w io.Writer) error {
	var task Task
	if err := json.NewDecoder(r).Decode(&task); err != nil {
		return fmt.Errorf("failed to decode task: %w", err)
	}

	outcome := ProcessImage(ctx, task)
	if err := json.NewEncoder(w).Encode(outcome); err != nil {
		return fmt.Errorf("failed to write outcome: %w", err)
	}
	return nil
}
