package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"batch-resizer/internal/filesystem"
	"batch-resizer/internal/logging"
	"batch-resizer/internal/media"
	"batch-resizer/internal/metrics"
	"batch-resizer/internal/startup"
)

// Exit codes
const (
	exitOK          = 0
	exitFailed      = 1
	exitUsage       = 2
	exitInterrupted = 130
)

// libvips lifecycle used by commands. libvips cannot be started again after
// shutdown, so tests replace shutdownVips to keep one instance alive.
var (
	initVips     = media.InitVips
	shutdownVips = media.ShutdownVips
)

func main() {
	code := realMain(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	logging.Sync()
	os.Exit(code)
}

func realMain(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitUsage
	}

	command := args[0]
	if command == "serve" {
		return serveCommand()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case "run":
		return runCommand(ctx, args[1:], stdout, stderr)
	case "worker":
		return workerCommand(ctx, stdin, stdout)
	case "info":
		return infoCommand(args[1:], stdout, stderr)
	case "version", "-version", "--version":
		printVersion(stdout)
		return exitOK
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage(stderr)
		return exitUsage
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// Any character that is not alphanumeric, a hyphen or an underscore becomes '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Batch Resizer")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: resizer <command> [flags] [args]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run      - Resize files or directories into an output directory")
	fmt.Fprintln(w, "  serve    - Start the HTTP API")
	fmt.Fprintln(w, "  info     - Show format, dimensions and size of images")
	fmt.Fprintln(w, "  worker   - Process one task from stdin (used by -backend subprocess)")
	fmt.Fprintln(w, "  version  - Show version information")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'resizer run -h' for batch flags.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  %s_* variables set defaults (e.g. %s_WIDTH, %s_QUALITY, %s_OUTPUT_DIR)\n",
		startup.EnvPrefix, startup.EnvPrefix, startup.EnvPrefix, startup.EnvPrefix)
	fmt.Fprintln(w, "  LOG_LEVEL, LOG_FORMAT, LOG_FILE control logging")
}

func printVersion(w io.Writer) {
	info := startup.GetBuildInfo()
	fmt.Fprintf(w, "resizer %s\n", info.Version)
	fmt.Fprintf(w, "  commit:     %s\n", info.Commit)
	fmt.Fprintf(w, "  built:      %s\n", info.BuildTime)
	fmt.Fprintf(w, "  go version: %s\n", info.GoVersion)
}

// setupMetrics registers build info, pre-populates label sets and routes
// filesystem retry metrics to Prometheus.
func setupMetrics(volumes map[string]string) {
	info := startup.GetBuildInfo()
	metrics.SetAppInfo(info.Version, info.Commit, info.GoVersion)
	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(volumes))
}
