/*
Package filesystem wraps the filesystem calls made by image tasks with retry
logic for NFS stale file handle errors.

Batches are often pointed at photo libraries on network mounts. A file handle
can go stale (ESTALE, errno 116) while a batch is running; retrying the
operation after a short pause usually succeeds.

# Usage

	f, err := filesystem.OpenWithRetry(input, filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}
	defer f.Close()

	err = filesystem.MkdirAllWithRetry(outDir, 0o755, filesystem.DefaultRetryConfig())

# Retry Behavior

Defaults: 3 retries, 50ms initial backoff doubling up to 500ms. Only ESTALE
triggers a retry; every other error is returned immediately.

# Metrics

Retry metrics are labeled with a volume name resolved by longest-prefix
match (see VolumeResolver). Install an Observer with SetObserver to record
them; without one, nothing is recorded.
*/
package filesystem
