package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"
)

// Sentinel errors for streaming operations.
var (
	// ErrWriteTimeout indicates that a write did not complete within the
	// write timeout, or the stream ran past its maximum duration.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates that the client disconnected before the stream completed.
	ErrClientGone = errors.New("client disconnected")

	// ErrStreamCanceled indicates that the stream was closed by the server.
	ErrStreamCanceled = errors.New("stream canceled")
)

// Config configures an EventWriter.
type Config struct {
	// WriteTimeout bounds each event write and flush (0 = no deadline).
	WriteTimeout time.Duration
	// MaxDuration is the absolute maximum streaming duration (0 = unlimited).
	MaxDuration time.Duration
}

// DefaultConfig returns a 30s per-event write timeout and no overall limit.
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 30 * time.Second,
	}
}

// EventWriter writes newline-delimited JSON events to an HTTP response,
// flushing each one. The first failed write cancels Context(), so work
// producing the events can stop once nobody is reading them.
type EventWriter struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	ctx    context.Context
	cancel context.CancelCauseFunc
	config Config
	start  time.Time

	mu     sync.Mutex
	events int
	bytes  int64
	closed bool
}

// NewEventWriter wraps w. The caller sets headers and the status code.
func NewEventWriter(ctx context.Context, w http.ResponseWriter, config Config) *EventWriter {
	ctx, cancel := context.WithCancelCause(ctx)
	return &EventWriter{
		w:      w,
		rc:     http.NewResponseController(w),
		ctx:    ctx,
		cancel: cancel,
		config: config,
		start:  time.Now(),
	}
}

// Context is cancelled when the client goes away, a write fails or the
// writer is closed.
func (e *EventWriter) Context() context.Context {
	return e.ctx
}

// Send writes v as one JSON line and flushes it.
func (e *EventWriter) Send(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	line = append(line, '\n')

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrStreamCanceled
	}
	if e.ctx.Err() != nil {
		return e.contextError()
	}
	if e.config.MaxDuration > 0 && time.Since(e.start) > e.config.MaxDuration {
		e.cancel(ErrWriteTimeout)
		return ErrWriteTimeout
	}

	if e.config.WriteTimeout > 0 {
		if err := e.rc.SetWriteDeadline(time.Now().Add(e.config.WriteTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return e.fail(err)
		}
	}

	n, err := e.w.Write(line)
	e.bytes += int64(n)
	if err == nil {
		if ferr := e.rc.Flush(); ferr != nil && !errors.Is(ferr, http.ErrNotSupported) {
			err = ferr
		}
	}
	if err != nil {
		return e.fail(err)
	}

	e.events++
	return nil
}

// fail classifies a write error and cancels the stream with it. Caller
// holds e.mu.
func (e *EventWriter) fail(err error) error {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		err = fmt.Errorf("%w: %w", ErrWriteTimeout, err)
	} else {
		err = fmt.Errorf("%w: %w", ErrClientGone, err)
	}
	e.cancel(err)
	return err
}

func (e *EventWriter) contextError() error {
	cause := context.Cause(e.ctx)
	switch {
	case errors.Is(cause, ErrWriteTimeout), errors.Is(cause, ErrClientGone), errors.Is(cause, ErrStreamCanceled):
		return cause
	case errors.Is(cause, context.Canceled):
		return ErrClientGone
	default:
		return ErrStreamCanceled
	}
}

// Close stops the stream and clears any write deadline. Later sends fail
// with ErrStreamCanceled.
func (e *EventWriter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.cancel(ErrStreamCanceled)

	if e.config.WriteTimeout > 0 {
		if err := e.rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
	}
	return nil
}

// Stats returns the number of events and bytes written so far and the
// stream's age.
func (e *EventWriter) Stats() (events int, bytesWritten int64, duration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events, e.bytes, time.Since(e.start)
}
