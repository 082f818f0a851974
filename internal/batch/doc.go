/*
Package batch resizes lists of images to a fixed target size.

A Request names the input files, the output directory, the target size,
the resize mode and the encoder quality. RunSequential handles the files
one by one on the calling goroutine; RunParallel spreads them over a fixed
worker pool and, if the pool itself fails, reruns the whole batch
sequentially. Run picks one based on Request.Parallel.

Per-file failures never abort a batch. They are collected into
Result.Failures in input order; Total always equals Processed plus Failed.

# Outputs

Each input "photo.jpg" is written as "photo_resized.jpg" in the output
directory, in the format implied by its extension. With the Suffix
collision policy, names already taken in the batch or on disk get a
numeric suffix ("photo_resized_1.jpg").

# Backends

RunParallel executes tasks through a Backend. InProcess runs them on
goroutines; Subprocess starts one worker process per task, exchanging
JSON over stdin and stdout with ServeWorker.

# Progress

Request.Progress receives one event per file, in input order for the
sequential runner and completion order for the parallel one. It is never
called concurrently.
*/
package batch
