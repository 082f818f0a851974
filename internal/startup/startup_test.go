package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"batch-resizer/internal/batch"
	"batch-resizer/internal/media"
	"batch-resizer/internal/memory"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("Expected OS and Arch to be set")
	}
}

// clearEnv unsets every variable Load reads so host settings don't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OUTPUT_DIR", "WIDTH", "HEIGHT", "MODE", "QUALITY", "WORKERS", "PARALLEL",
		"COLLISION", "BACKEND", "PORT", "ROOT_DIR", "SHUTDOWN_TIMEOUT", "LOG_HEALTH_CHECKS",
		"METRICS_ENABLED", "METRICS_TEXTFILE", "VIPS_ENABLED", "MEMORY_LIMIT", "MEMORY_RATIO",
	} {
		t.Setenv(EnvPrefix+"_"+key, "")
		os.Unsetenv(EnvPrefix + "_" + key)
	}
	t.Setenv("MEMORY_LIMIT", "")
	os.Unsetenv("MEMORY_LIMIT")
	t.Setenv("MEMORY_RATIO", "")
	os.Unsetenv("MEMORY_RATIO")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 600, cfg.Height)
	assert.Equal(t, media.KeepRatio, cfg.Mode)
	assert.Equal(t, 95, cfg.Quality)
	assert.Zero(t, cfg.Workers)
	assert.True(t, cfg.Parallel)
	assert.Equal(t, batch.Overwrite, cfg.Collision)
	assert.Equal(t, batch.BackendInProcess, cfg.Backend)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.MetricsEnabled)
	assert.True(t, cfg.VipsEnabled)
	assert.Equal(t, 0.85, cfg.MemoryRatio)
	assert.Empty(t, cfg.OutputDir)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	out := t.TempDir()
	t.Setenv("RESIZER_OUTPUT_DIR", out)
	t.Setenv("RESIZER_WIDTH", "300")
	t.Setenv("RESIZER_HEIGHT", "200")
	t.Setenv("RESIZER_MODE", "crop")
	t.Setenv("RESIZER_QUALITY", "70")
	t.Setenv("RESIZER_WORKERS", "3")
	t.Setenv("RESIZER_PARALLEL", "false")
	t.Setenv("RESIZER_COLLISION", "suffix")
	t.Setenv("RESIZER_BACKEND", "subprocess")
	t.Setenv("MEMORY_LIMIT", "1073741824")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, out, cfg.OutputDir)
	assert.Equal(t, media.Crop, cfg.Mode)
	assert.Equal(t, batch.Suffix, cfg.Collision)
	assert.Equal(t, batch.BackendSubprocess, cfg.Backend)
	assert.Equal(t, int64(1<<30), cfg.MemoryLimit)

	req := cfg.Request([]string{"a.png"})
	assert.Equal(t, media.TargetSize{Width: 300, Height: 200}, req.Size)
	assert.Equal(t, 70, req.Quality)
	assert.Equal(t, 3, req.Workers)
	assert.False(t, req.Parallel)
	assert.NoError(t, req.Validate())
}

func TestLoad_RelativePathsAreResolved(t *testing.T) {
	clearEnv(t)
	t.Setenv("RESIZER_OUTPUT_DIR", "resized")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.OutputDir))
	assert.Equal(t, "resized", filepath.Base(cfg.OutputDir))
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string][2]string{
		"quality too high": {"RESIZER_QUALITY", "150"},
		"zero width":       {"RESIZER_WIDTH", "0"},
		"unknown mode":     {"RESIZER_MODE", "sideways"},
		"bad collision":    {"RESIZER_COLLISION", "rename"},
		"unknown backend":  {"RESIZER_BACKEND", "gpu"},
		"bad port":         {"RESIZER_PORT", "http"},
		"bad ratio":        {"MEMORY_RATIO", "2"},
		"not a number":     {"RESIZER_WORKERS", "many"},
	}

	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_CreatesRootDir(t *testing.T) {
	clearEnv(t)
	root := filepath.Join(t.TempDir(), "library")
	t.Setenv("RESIZER_ROOT_DIR", root)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, root, cfg.RootDir)
	assert.DirExists(t, root)
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	noop := func(http.ResponseWriter, *http.Request) {}
	router.HandleFunc("/api/batch", noop).Methods("POST").Name("batch")
	router.HandleFunc("/health", noop).Methods("GET", "HEAD")
	router.PathPrefix("/static/").HandlerFunc(noop)

	routes, err := GetRoutes(router)
	require.NoError(t, err)
	assert.Contains(t, routes, RouteInfo{Method: "POST", Path: "/api/batch", Name: "batch"})
	assert.Contains(t, routes, RouteInfo{Method: "HEAD", Path: "/health"})
	assert.Contains(t, routes, RouteInfo{Method: "*", Path: "/static/"})

	LogHTTPRoutes(router, false)
}

func TestLogMemoryConfig(_ *testing.T) {
	LogMemoryConfig(memory.ConfigResult{Source: "none"})
	LogMemoryConfig(memory.ConfigResult{Source: "GOMEMLIMIT", Configured: true, GoMemLimit: 1 << 30})
	LogMemoryConfig(memory.ConfigResult{Source: "MEMORY_LIMIT", Configured: true, ContainerLimit: 2 << 30, GoMemLimit: 1 << 30, Ratio: 0.5})
}

func TestEnsureDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, ensureDirectory(dir, "test"))
	require.NoError(t, ensureDirectory(dir, "test"))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, ensureDirectory(file, "test"))
}
