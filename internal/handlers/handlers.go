package handlers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"batch-resizer/internal/batch"
	"batch-resizer/internal/memory"
	"batch-resizer/internal/startup"
)

var errOutsideRoot = errors.New("path is outside the root directory")

// Handlers serves the batch API. Batches run with the configured defaults
// for any field a request leaves out.
type Handlers struct {
	config  *startup.Config
	monitor *memory.Monitor
	backend batch.Backend
	started time.Time
	active  atomic.Int64
}

// New creates the API handlers. monitor may be nil, in which case batches
// are not throttled on memory pressure.
func New(config *startup.Config, monitor *memory.Monitor) *Handlers {
	return &Handlers{
		config:  config,
		monitor: monitor,
		started: time.Now(),
	}
}

// SetBackend sets the execution backend used for parallel batches. It must
// be called before the handlers serve requests; nil means in-process.
func (h *Handlers) SetBackend(b batch.Backend) {
	h.backend = b
}

// Backend returns the execution backend, nil meaning in-process.
func (h *Handlers) Backend() batch.Backend {
	return h.backend
}

// ActiveBatches returns the number of batches currently running.
func (h *Handlers) ActiveBatches() int64 {
	return h.active.Load()
}

func (h *Handlers) admit() func(context.Context) error {
	if h.monitor == nil {
		return nil
	}
	return h.monitor.Wait
}

// resolvePath makes p absolute. With a root directory configured, relative
// paths are taken relative to it and anything resolving outside it is
// rejected.
func (h *Handlers) resolvePath(p string) (string, error) {
	root := h.config.RootDir
	if root == "" {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", fmt.Errorf("invalid path %q: %w", p, err)
		}
		return abs, nil
	}

	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	p = filepath.Clean(p)
	if !isSubPath(root, p) {
		return "", fmt.Errorf("%w: %s", errOutsideRoot, p)
	}
	return p, nil
}

func isSubPath(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
