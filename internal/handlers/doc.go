// Package handlers provides the HTTP API for running resize batches.
//
// It includes handlers for:
//   - Running a batch and returning its result
//   - Streaming batch progress as newline-delimited JSON
//   - Validating a file selection without processing it
//   - Inspecting a single image
//   - Health, readiness and version checks
//
// When a root directory is configured, every input and output path must
// resolve inside it.
package handlers
