package batch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"batch-resizer/internal/logging"
)

// Backend executes tasks for RunParallel. Execute returns an error only for
// infrastructure failures; a task that fails to resize is reported through
// TaskOutcome. Execute must be safe for concurrent use.
type Backend interface {
	Start(ctx context.Context, workers int) error
	Execute(ctx context.Context, task Task) (TaskOutcome, error)
	Close() error
}

// Backend names accepted by NewBackend.
const (
	BackendInProcess  = "inprocess"
	BackendSubprocess = "subprocess"
)

// NewBackend returns the backend registered under name. An empty name
// selects InProcess.
func NewBackend(name string) (Backend, error) {
	switch strings.ToLower(name) {
	case "", BackendInProcess:
		return InProcess{}, nil
	case BackendSubprocess:
		return &Subprocess{}, nil
	}
	return nil, fmt.Errorf("unknown backend %q (want %s or %s)", name, BackendInProcess, BackendSubprocess)
}

// InProcess runs tasks on goroutines in the current process.
type InProcess struct{}

func (InProcess) Start(context.Context, int) error { return nil }

func (InProcess) Execute(ctx context.Context, task Task) (TaskOutcome, error) {
	return ProcessImage(ctx, task), nil
}

func (InProcess) Close() error { return nil }

// Subprocess runs every task in its own OS process. The process receives
// the Task as JSON on stdin and writes the TaskOutcome as a JSON line to
// stdout (see ServeWorker). A Subprocess may be shared by concurrent
// batches; the executable is resolved once, on the first Start.
type Subprocess struct {
	// Command is the worker executable. Empty means the running binary.
	Command string
	// Args are passed to Command. Nil means []string{"worker"}.
	Args []string
	// Env is appended to the parent environment.
	Env []string

	once    sync.Once
	ready   atomic.Bool
	path    string
	pathErr error
}

// Start resolves the worker executable.
func (s *Subprocess) Start(_ context.Context, workers int) error {
	s.once.Do(func() {
		s.path, s.pathErr = s.lookPath()
		s.ready.Store(s.pathErr == nil)
	})
	if s.pathErr != nil {
		return s.pathErr
	}
	logging.Debug("Subprocess backend using %s for %d workers", s.path, workers)
	return nil
}

func (s *Subprocess) lookPath() (string, error) {
	cmd := s.Command
	if cmd == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("failed to locate worker executable: %w", err)
		}
		cmd = exe
	}

	path, err := exec.LookPath(cmd)
	if err != nil {
		return "", fmt.Errorf("worker executable not found: %w", err)
	}
	return path, nil
}

// Execute runs one worker process for task.
func (s *Subprocess) Execute(ctx context.Context, task Task) (TaskOutcome, error) {
	if !s.ready.Load() {
		return TaskOutcome{}, errors.New("subprocess backend not started")
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return TaskOutcome{}, fmt.Errorf("failed to encode task: %w", err)
	}

	args := s.Args
	if args == nil {
		args = []string{"worker"}
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.path, args...)
	cmd.Env = append(os.Environ(), s.Env...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return TaskOutcome{}, fmt.Errorf("worker process failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	outcome, err := decodeOutcome(stdout.Bytes())
	if err != nil {
		return TaskOutcome{}, err
	}
	return outcome, nil
}

// Close is a no-op; worker processes exit after each task.
func (s *Subprocess) Close() error { return nil }

// decodeOutcome parses the last non-empty line of worker output.
func decodeOutcome(out []byte) (TaskOutcome, error) {
	var last []byte
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := bytes.TrimSpace(sc.Bytes()); len(line) > 0 {
			last = append(last[:0], line...)
		}
	}
	if err := sc.Err(); err != nil {
		return TaskOutcome{}, fmt.Errorf("failed to read worker output: %w", err)
	}
	if last == nil {
		return TaskOutcome{}, errors.New("worker produced no outcome")
	}

	var outcome TaskOutcome
	if err := json.Unmarshal(last, &outcome); err != nil {
		return TaskOutcome{}, fmt.Errorf("failed to decode worker outcome: %w", err)
	}
	return outcome, nil
}
