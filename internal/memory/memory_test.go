package memory

import (
	"context"
	"runtime/debug"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMonitor(limit int64) *Monitor {
	cfg := DefaultConfig()
	cfg.MemoryLimitBytes = limit
	return NewMonitor(cfg)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0.7, cfg.HighWaterMark)
	assert.Equal(t, 0.85, cfg.CriticalWaterMark)
	assert.Equal(t, time.Second, cfg.CheckInterval)
	assert.Zero(t, cfg.MemoryLimitBytes)
}

func TestMonitor_PausesAndResumes(t *testing.T) {
	m := newTestMonitor(1000)

	m.observe(500)
	assert.False(t, m.IsPaused())
	assert.InDelta(t, 0.5, m.GetUsage(), 1e-9)

	m.observe(900)
	assert.True(t, m.IsPaused(), "above critical water mark")

	// Between the marks the state is sticky.
	m.observe(800)
	assert.True(t, m.IsPaused())

	m.observe(100)
	assert.False(t, m.IsPaused(), "below high water mark")
}

func TestMonitor_WaitBlocksWhilePaused(t *testing.T) {
	m := newTestMonitor(1000)
	require.NoError(t, m.Wait(context.Background()), "not paused")

	m.observe(950)
	released := make(chan error, 1)
	go func() { released <- m.Wait(context.Background()) }()

	select {
	case <-released:
		t.Fatal("Wait returned while paused")
	case <-time.After(20 * time.Millisecond):
	}

	m.observe(10)
	select {
	case err := <-released:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after recovery")
	}
}

func TestMonitor_WaitHonoursContext(t *testing.T) {
	m := newTestMonitor(1000)
	m.observe(999)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Wait(ctx), context.DeadlineExceeded)
}

func TestMonitor_StopReleasesWaiters(t *testing.T) {
	m := newTestMonitor(1000)
	m.observe(999)

	done := make(chan struct{})
	go func() {
		_ = m.Wait(context.Background())
		close(done)
	}()

	m.Stop()
	m.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not release waiter")
	}
}

func TestMonitor_NoLimit(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "")
	prev := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })
	debug.SetMemoryLimit(1<<63 - 1)

	m := newTestMonitor(0)
	m.Start()
	defer m.Stop()

	m.observe(1 << 40)
	assert.False(t, m.IsPaused())
	assert.Zero(t, m.GetUsage())
	assert.NoError(t, m.Wait(context.Background()))
}

func TestConfigure(t *testing.T) {
	prev := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(prev) })

	t.Run("no container limit", func(t *testing.T) {
		t.Setenv("GOMEMLIMIT", "")
		res := Configure(0, 0.5)
		assert.False(t, res.Configured)
		assert.Equal(t, "none", res.Source)
	})

	t.Run("container limit with ratio", func(t *testing.T) {
		t.Setenv("GOMEMLIMIT", "")
		res := Configure(1<<30, 0.5)
		assert.True(t, res.Configured)
		assert.Equal(t, "MEMORY_LIMIT", res.Source)
		assert.Equal(t, int64(1<<29), res.GoMemLimit)
		assert.Equal(t, int64(1<<29), debug.SetMemoryLimit(-1))
	})

	t.Run("out of range ratio uses default", func(t *testing.T) {
		t.Setenv("GOMEMLIMIT", "")
		res := Configure(1000, 1.5)
		assert.Equal(t, DefaultMemoryRatio, res.Ratio)
		assert.Equal(t, int64(850), res.GoMemLimit)

		res = Configure(1000, 0)
		assert.Equal(t, DefaultMemoryRatio, res.Ratio)
	})

	t.Run("GOMEMLIMIT wins", func(t *testing.T) {
		t.Setenv("GOMEMLIMIT", "512MiB")
		debug.SetMemoryLimit(512 << 20)
		res := Configure(1<<30, 0.5)
		assert.Equal(t, "GOMEMLIMIT", res.Source)
		assert.True(t, res.Configured)
		assert.Equal(t, int64(512<<20), res.GoMemLimit)
	})
}
