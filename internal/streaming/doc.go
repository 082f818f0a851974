/*
Package streaming writes newline-delimited JSON event streams to HTTP
clients with write-timeout protection.

A batch can run for minutes while its progress is streamed. A client that
disconnects or stops reading must not keep the batch running, so
EventWriter cancels its Context on the first failed write; the producer
runs under that context.

# Usage

	sw := streaming.NewEventWriter(r.Context(), w, streaming.DefaultConfig())
	defer sw.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	req.Progress = func(p batch.Progress) { _ = sw.Send(p) }
	res, err := batch.Run(sw.Context(), req)

# Errors

	ErrWriteTimeout    a write missed its deadline or MaxDuration passed
	ErrClientGone      the client disconnected or a write failed
	ErrStreamCanceled  the writer was closed

Write deadlines are set through http.ResponseController, so wrapping
middleware must implement Unwrap. Writers without deadline support are
used without one.
*/
package streaming
