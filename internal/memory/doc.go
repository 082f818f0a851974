// Package memory controls Go's memory use when resizing in a container.
//
// Decoding a large photo allocates width*height*4 bytes before any resizing
// happens, so a parallel batch can spike well past the steady-state heap.
// Unlike GOMAXPROCS, GOMEMLIMIT is not derived from cgroup limits, so
// [Configure] sets it from the container limit (MEMORY_LIMIT, usually from
// the Kubernetes Downward API) times MEMORY_RATIO (default 0.85). An explicit
// GOMEMLIMIT always wins.
//
// [Monitor] samples the heap and, above the critical water mark, makes
// [Monitor.Wait] block until usage drops below the high water mark. The
// batch runners call Wait before starting each task.
//
//	mon := memory.NewMonitor(memory.DefaultConfig())
//	mon.Start()
//	defer mon.Stop()
//	req.Admit = mon.Wait
package memory
