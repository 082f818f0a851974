package batch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"batch-resizer/internal/media"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Strategy names how a batch was executed.
type Strategy string

const (
	StrategySequential Strategy = "sequential"
	StrategyParallel   Strategy = "parallel"
	// StrategyFallback is a parallel run that was redone sequentially after
	// the worker pool failed.
	StrategyFallback Strategy = "fallback"
)

// CollisionPolicy decides what happens when two inputs map to the same
// output name, or the output already exists.
type CollisionPolicy int

const (
	// Overwrite always writes <stem>_resized<ext>; the last writer wins.
	Overwrite CollisionPolicy = iota
	// Suffix appends _1, _2, ... until the name is free on disk and unused
	// within the batch.
	Suffix
)

func (c CollisionPolicy) String() string {
	switch c {
	case Overwrite:
		return "overwrite"
	case Suffix:
		return "suffix"
	default:
		return fmt.Sprintf("CollisionPolicy(%d)", int(c))
	}
}

// ParseCollisionPolicy parses "overwrite" or "suffix".
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "overwrite", "":
		return Overwrite, nil
	case "suffix", "unique":
		return Suffix, nil
	}
	return Overwrite, fmt.Errorf("unknown collision policy %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c CollisionPolicy) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CollisionPolicy) UnmarshalText(text []byte) error {
	p, err := ParseCollisionPolicy(string(text))
	if err != nil {
		return err
	}
	*c = p
	return nil
}

// Task is one image to resize. It is JSON-encoded when handed to a worker
// process.
type Task struct {
	Input   string           `json:"input"`
	Output  string           `json:"output"`
	Size    media.TargetSize `json:"size"`
	Mode    media.Mode       `json:"mode"`
	Quality int              `json:"quality"`
}

// TaskOutcome is the result of one Task.
type TaskOutcome struct {
	Input    string        `json:"input"`
	Output   string        `json:"output"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Kind     ErrorKind     `json:"kind,omitempty"`
	Bytes    int64         `json:"bytes"`
	Duration time.Duration `json:"duration"`
}

// FileError records why a file failed.
type FileError struct {
	Path   string    `json:"path"`
	Reason string    `json:"reason"`
	Kind   ErrorKind `json:"kind"`
}

// Result summarizes a finished batch. Failures are in input order.
type Result struct {
	ID        uuid.UUID     `json:"id"`
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Failures  []FileError   `json:"failures"`
	Duration  time.Duration `json:"duration"`
	Workers   int           `json:"workers"`
	Strategy  Strategy      `json:"strategy"`
	Bytes     int64         `json:"bytes"`
}

// OK reports whether every file was processed.
func (r *Result) OK() bool {
	return r.Failed == 0
}

// Progress is reported after each file completes.
type Progress struct {
	Percent float64 `json:"percent"`
	File    string  `json:"file"`
	Success bool    `json:"success"`
}

// ProgressFunc receives progress events. It is never called concurrently.
type ProgressFunc func(Progress)

// Request describes a batch.
type Request struct {
	Files     []string         `json:"files" validate:"required,min=1,dive,required"`
	OutputDir string           `json:"outputDir" validate:"required"`
	Size      media.TargetSize `json:"size"`
	Mode      media.Mode       `json:"mode" validate:"gte=0,lte=2"`
	Quality   int              `json:"quality" validate:"min=1,max=100"`
	// Workers is the parallel pool size; 0 picks workers.DefaultPoolSize.
	Workers   int             `json:"workers" validate:"gte=0"`
	Parallel  bool            `json:"parallel"`
	Collision CollisionPolicy `json:"collision" validate:"gte=0,lte=1"`

	Progress ProgressFunc `json:"-"`
	// Backend runs parallel tasks; nil means in-process goroutines.
	Backend Backend `json:"-"`
	// Admit, when set, is called before each task starts and may block,
	// e.g. while memory is under pressure.
	Admit func(ctx context.Context) error `json:"-"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the request fields.
func (r *Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if err := r.Size.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

func (r *Request) progress(p Progress) {
	if r.Progress != nil {
		r.Progress(p)
	}
}

func (r *Request) admit(ctx context.Context) error {
	if r.Admit != nil {
		return r.Admit(ctx)
	}
	return nil
}

func (r *Request) task(input, output string) Task {
	return Task{
		Input:   input,
		Output:  output,
		Size:    r.Size,
		Mode:    r.Mode,
		Quality: r.Quality,
	}
}
