package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"batch-resizer/internal/batch"
	"batch-resizer/internal/logging"
	"batch-resizer/internal/media"
	"batch-resizer/internal/middleware"
	"batch-resizer/internal/streaming"
)

// maxRequestBody bounds the JSON body of batch requests.
const maxRequestBody = 1 << 20

// BatchRequest is the JSON body accepted by the batch endpoints. Zero or
// missing fields fall back to the server configuration.
type BatchRequest struct {
	Files     []string               `json:"files"`
	OutputDir string                 `json:"outputDir,omitempty"`
	Width     int                    `json:"width,omitempty"`
	Height    int                    `json:"height,omitempty"`
	Mode      *media.Mode            `json:"mode,omitempty"`
	Quality   int                    `json:"quality,omitempty"`
	Workers   int                    `json:"workers,omitempty"`
	Parallel  *bool                  `json:"parallel,omitempty"`
	Collision *batch.CollisionPolicy `json:"collision,omitempty"`
}

// StreamEvent is one line of the NDJSON batch stream.
type StreamEvent struct {
	Type     string          `json:"type"`
	Progress *batch.Progress `json:"progress,omitempty"`
	Result   *batch.Result   `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

const (
	eventProgress = "progress"
	eventResult   = "result"
	eventError    = "error"
)

type requestError struct {
	status int
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &requestError{status: http.StatusBadRequest, err: err}
}

func forbidden(err error) error {
	return &requestError{status: http.StatusForbidden, err: err}
}

func statusFor(err error) int {
	var re *requestError
	if errors.As(err, &re) {
		return re.status
	}
	if errors.Is(err, batch.ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decodeBatchRequest reads a BatchRequest body, rejecting unknown fields.
func decodeBatchRequest(w http.ResponseWriter, r *http.Request) (BatchRequest, error) {
	var body BatchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return BatchRequest{}, badRequest(fmt.Errorf("invalid request body: %w", err))
	}
	return body, nil
}

// buildRequest decodes the body, applies configured defaults, confines
// every path and expands directories. The returned request is validated.
func (h *Handlers) buildRequest(w http.ResponseWriter, r *http.Request) (batch.Request, error) {
	body, err := decodeBatchRequest(w, r)
	if err != nil {
		return batch.Request{}, err
	}
	if len(body.Files) == 0 {
		return batch.Request{}, badRequest(errors.New("no files selected"))
	}

	paths := make([]string, 0, len(body.Files))
	for _, f := range body.Files {
		p, err := h.resolvePath(f)
		if err != nil {
			return batch.Request{}, h.pathError(err)
		}
		paths = append(paths, p)
	}

	files, err := batch.ExpandInputs(paths)
	if err != nil {
		return batch.Request{}, badRequest(err)
	}
	if len(files) == 0 {
		return batch.Request{}, badRequest(errors.New("no image files found"))
	}

	req := h.config.Request(files)
	if body.OutputDir != "" {
		req.OutputDir = body.OutputDir
	}
	if req.OutputDir == "" {
		return batch.Request{}, badRequest(errors.New("output directory is required"))
	}
	if req.OutputDir, err = h.resolvePath(req.OutputDir); err != nil {
		return batch.Request{}, h.pathError(err)
	}

	if body.Width > 0 {
		req.Size.Width = body.Width
	}
	if body.Height > 0 {
		req.Size.Height = body.Height
	}
	if body.Mode != nil {
		req.Mode = *body.Mode
	}
	if body.Quality != 0 {
		req.Quality = body.Quality
	}
	if body.Workers > 0 {
		req.Workers = body.Workers
	}
	if body.Parallel != nil {
		req.Parallel = *body.Parallel
	}
	if body.Collision != nil {
		req.Collision = *body.Collision
	}
	req.Backend = h.backend
	req.Admit = h.admit()

	if err := req.Validate(); err != nil {
		return batch.Request{}, err
	}
	return req, nil
}

func (h *Handlers) pathError(err error) error {
	if errors.Is(err, errOutsideRoot) {
		return forbidden(err)
	}
	return badRequest(err)
}

// RunBatch resizes the requested files and responds with the batch result
// once every file has been handled. Per-file failures are reported in the
// result, not as an HTTP error.
func (h *Handlers) RunBatch(w http.ResponseWriter, r *http.Request) {
	req, err := h.buildRequest(w, r)
	if err != nil {
		writeJSONError(w, err.Error(), statusFor(err))
		return
	}

	h.active.Add(1)
	defer h.active.Add(-1)

	rid := middleware.RequestID(r.Context())
	res, err := batch.Run(r.Context(), req)
	if err != nil {
		if r.Context().Err() != nil {
			logging.Warn("Batch cancelled by client (request %s): %v", rid, err)
			return
		}
		logging.Error("Batch failed (request %s): %v", rid, err)
		writeJSONError(w, "Batch failed", statusFor(err))
		return
	}

	logging.Info("Batch %s (request %s): %d processed, %d failed in %v",
		res.ID, rid, res.Processed, res.Failed, res.Duration)
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, res)
}

// StreamBatch runs a batch and streams newline-delimited JSON events: one
// progress event per file, then a final result or error event.
func (h *Handlers) StreamBatch(w http.ResponseWriter, r *http.Request) {
	req, err := h.buildRequest(w, r)
	if err != nil {
		writeJSONError(w, err.Error(), statusFor(err))
		return
	}

	h.active.Add(1)
	defer h.active.Add(-1)

	sw := streaming.NewEventWriter(r.Context(), w, streaming.DefaultConfig())
	defer sw.Close()
	send := func(ev StreamEvent) {
		if err := sw.Send(ev); err != nil {
			logging.Debug("Batch stream write failed: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	req.Progress = func(p batch.Progress) {
		send(StreamEvent{Type: eventProgress, Progress: &p})
	}

	rid := middleware.RequestID(r.Context())
	// The batch stops when the client disconnects or stops reading.
	res, err := batch.Run(sw.Context(), req)
	if err != nil {
		if sw.Context().Err() == nil {
			logging.Error("Batch failed (request %s): %v", rid, err)
		} else {
			logging.Warn("Batch stream %s ended early: %v", rid, context.Cause(sw.Context()))
		}
		send(StreamEvent{Type: eventError, Error: err.Error()})
		return
	}

	events, bytesWritten, duration := sw.Stats()
	logging.Debug("Batch stream %s (request %s): %d events, %d bytes in %v", res.ID, rid, events+1, bytesWritten, duration)
	send(StreamEvent{Type: eventResult, Result: res})
}

// ValidateFiles reports which of the requested files a batch would accept,
// without processing anything.
func (h *Handlers) ValidateFiles(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBatchRequest(w, r)
	if err != nil {
		writeJSONError(w, err.Error(), statusFor(err))
		return
	}

	paths := make([]string, 0, len(body.Files))
	for _, f := range body.Files {
		p, err := h.resolvePath(f)
		if err != nil {
			err = h.pathError(err)
			writeJSONError(w, err.Error(), statusFor(err))
			return
		}
		paths = append(paths, p)
	}

	files, err := batch.ExpandInputs(paths)
	if err != nil {
		writeJSONError(w, "Failed to read input directory", http.StatusBadRequest)
		return
	}

	v := batch.ValidateFiles(files)
	if v.Valid == nil {
		v.Valid = []string{}
	}
	if v.Invalid == nil {
		v.Invalid = []batch.FileError{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, v)
}
