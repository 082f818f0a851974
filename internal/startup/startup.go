package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"batch-resizer/internal/batch"
	"batch-resizer/internal/logging"
	"batch-resizer/internal/media"
	"batch-resizer/internal/memory"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every configuration variable, e.g. RESIZER_QUALITY.
const EnvPrefix = "RESIZER"

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration. Fields are read from
// RESIZER_-prefixed environment variables; MEMORY_LIMIT and MEMORY_RATIO
// are also accepted unprefixed for the Kubernetes Downward API.
type Config struct {
	OutputDir string                `split_words:"true"`
	Width     int                   `default:"800" validate:"gt=0"`
	Height    int                   `default:"600" validate:"gt=0"`
	Mode      media.Mode            `default:"keep_ratio" validate:"gte=0,lte=2"`
	Quality   int                   `default:"95" validate:"min=1,max=100"`
	Workers   int                   `default:"0" validate:"gte=0"`
	Parallel  bool                  `default:"true"`
	Collision batch.CollisionPolicy `default:"overwrite" validate:"gte=0,lte=1"`
	Backend   string                `default:"inprocess" validate:"oneof=inprocess subprocess"`

	Port            string        `default:"8080" validate:"required,numeric"`
	RootDir         string        `split_words:"true"`
	ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
	LogHealthChecks bool          `split_words:"true" default:"true"`

	MetricsEnabled  bool   `split_words:"true" default:"true"`
	MetricsTextfile string `split_words:"true"`
	VipsEnabled     bool   `split_words:"true" default:"true"`

	MemoryLimit int64   `envconfig:"MEMORY_LIMIT" validate:"gte=0"`
	MemoryRatio float64 `envconfig:"MEMORY_RATIO" default:"0.85" validate:"gt=0,lte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and validates configuration from the environment without
// logging it. Directory paths are made absolute.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	for _, dir := range []*string{&cfg.OutputDir, &cfg.RootDir} {
		if *dir == "" {
			continue
		}
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve directory path %s: %w", *dir, err)
		}
		*dir = abs
	}

	return &cfg, nil
}

// LoadConfig prints the startup banner and system information, then loads
// and logs the configuration. Used by long-running commands.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	logSection("CONFIGURATION")
	logging.Info("  OUTPUT_DIR:         %s", valueOr(cfg.OutputDir, "(per request)"))
	logging.Info("  ROOT_DIR:           %s", valueOr(cfg.RootDir, "(unrestricted)"))
	logging.Info("  SIZE:               %dx%d", cfg.Width, cfg.Height)
	logging.Info("  MODE:               %s", cfg.Mode)
	logging.Info("  QUALITY:            %d", cfg.Quality)
	logging.Info("  PARALLEL:           %v", cfg.Parallel)
	logging.Info("  WORKERS:            %s", workersString(cfg.Workers))
	logging.Info("  COLLISION:          %s", cfg.Collision)
	logging.Info("  BACKEND:            %s", cfg.Backend)
	logging.Info("  PORT:               %s", cfg.Port)
	logging.Info("  METRICS_ENABLED:    %v", cfg.MetricsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:  %v", cfg.LogHealthChecks)
	logging.Info("  LOG_LEVEL:          %s", logging.GetLevel())

	if cfg.RootDir != "" {
		if err := ensureDirectory(cfg.RootDir, "root"); err != nil {
			return nil, fmt.Errorf("root directory error: %w", err)
		}
	}

	return cfg, nil
}

// Request builds a batch request for files from the configured defaults.
func (c *Config) Request(files []string) batch.Request {
	return batch.Request{
		Files:     files,
		OutputDir: c.OutputDir,
		Size:      media.TargetSize{Width: c.Width, Height: c.Height},
		Mode:      c.Mode,
		Quality:   c.Quality,
		Workers:   c.Workers,
		Parallel:  c.Parallel,
		Collision: c.Collision,
	}
}

func workersString(n int) string {
	if n == 0 {
		return "auto"
	}
	return fmt.Sprintf("%d", n)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func logSection(title string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

// ConfigureMemory applies the configured memory limit and logs the result.
func ConfigureMemory(cfg *Config) memory.ConfigResult {
	result := memory.Configure(cfg.MemoryLimit, cfg.MemoryRatio)
	LogMemoryConfig(result)
	return result
}

// LogMemoryConfig logs the memory limit configuration
func LogMemoryConfig(result memory.ConfigResult) {
	logSection("MEMORY CONFIGURATION")
	switch result.Source {
	case "GOMEMLIMIT":
		logging.Info("  GOMEMLIMIT:      %s (from environment)", humanize.IBytes(uint64(result.GoMemLimit)))
	case "MEMORY_LIMIT":
		logging.Info("  Container limit: %s", humanize.IBytes(uint64(result.ContainerLimit)))
		logging.Info("  GOMEMLIMIT:      %s (%.0f%%)", humanize.IBytes(uint64(result.GoMemLimit)), result.Ratio*100)
	default:
		logging.Info("  GOMEMLIMIT:      not configured")
	}
}

// LogVipsInit logs libvips availability
func LogVipsInit(enabled bool, err error) {
	logSection("IMAGE CODECS")
	logging.Info("  Decoders:  %s", strings.Join([]string{"jpeg", "png", "bmp", "tiff", "webp"}, ", "))
	switch {
	case !enabled:
		logging.Info("  libvips:   DISABLED (WebP output unavailable)")
	case err != nil:
		logging.Warn("  libvips:   failed to initialize: %v", err)
	default:
		logging.Info("  libvips:   %s", enabledString(true))
	}
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes at debug level
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logSection("HTTP SERVER SETUP")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		sort.Slice(routes, func(i, j int) bool {
			if routes[i].Path != routes[j].Path {
				return routes[i].Path < routes[j].Path
			}
			return routes[i].Method < routes[j].Method
		})

		logging.Debug("  Registered routes (%d total):", len(routes))
		for _, route := range routes {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}

	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set RESIZER_LOG_HEALTH_CHECKS=true to enable)")
	}
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logSection("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api/batch", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.Port)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logSection(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func printBanner() {
	banner := `
------------------------------------------------------------
    ____                 _
   / __ \___  _____(_)___  ___  _____
  / /_/ / _ \/ ___/ /_  / / _ \/ ___/
 / _, _/  __(__  ) / / /_/  __/ /
/_/ |_|\___/____/_/ /___/\___/_/

------------------------------------------------------------`
	fmt.Fprintln(os.Stderr, banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	logSection("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}
