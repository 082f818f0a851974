package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"batch-resizer/internal/batch"
	"batch-resizer/internal/logging"
	"batch-resizer/internal/mediatypes"
	"batch-resizer/internal/memory"
	"batch-resizer/internal/metrics"
	"batch-resizer/internal/report"
	"batch-resizer/internal/startup"
)

// runOptions are the parsed flags of the run command.
type runOptions struct {
	req     batch.Request
	backend string
	quiet   bool
}

// parseRunFlags builds a batch request from flags, falling back to cfg for
// anything not given.
func parseRunFlags(args []string, cfg *startup.Config, stderr io.Writer) (runOptions, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: resizer run [flags] <files or directories...>")
		fmt.Fprintln(stderr, "")
		fs.PrintDefaults()
	}

	req := cfg.Request(nil)
	opts := runOptions{}

	fs.StringVar(&req.OutputDir, "out", req.OutputDir, "output `directory`")
	fs.IntVar(&req.Size.Width, "width", req.Size.Width, "target width in pixels")
	fs.IntVar(&req.Size.Height, "height", req.Size.Height, "target height in pixels")
	fs.TextVar(&req.Mode, "mode", req.Mode, "resize mode: stretch, keep_ratio or crop")
	fs.IntVar(&req.Quality, "quality", req.Quality, "JPEG/WebP quality (1-100)")
	fs.IntVar(&req.Workers, "workers", req.Workers, "parallel workers (0 = automatic)")
	fs.BoolVar(&req.Parallel, "parallel", req.Parallel, "process files in parallel")
	fs.TextVar(&req.Collision, "collision", req.Collision, "existing output files: overwrite or suffix")
	fs.StringVar(&opts.backend, "backend", cfg.Backend, "parallel backend: inprocess or subprocess")
	fs.BoolVar(&opts.quiet, "quiet", false, "suppress progress output")

	if err := fs.Parse(args); err != nil {
		return runOptions{}, err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return runOptions{}, errors.New("no files selected")
	}
	if req.OutputDir == "" {
		return runOptions{}, errors.New("output directory is required (-out or " + startup.EnvPrefix + "_OUTPUT_DIR)")
	}

	backend, err := batch.NewBackend(opts.backend)
	if err != nil {
		return runOptions{}, err
	}
	req.Backend = backend

	files := make([]string, 0, fs.NArg())
	for _, f := range fs.Args() {
		abs, err := filepath.Abs(f)
		if err != nil {
			return runOptions{}, fmt.Errorf("invalid path %q: %w", f, err)
		}
		files = append(files, abs)
	}
	req.Files = files
	if req.OutputDir, err = filepath.Abs(req.OutputDir); err != nil {
		return runOptions{}, fmt.Errorf("invalid output directory: %w", err)
	}

	opts.req = req
	return opts, nil
}

func runCommand(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := startup.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitUsage
	}

	opts, err := parseRunFlags(args, cfg, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return exitUsage
	}
	req := opts.req

	files, err := batch.ExpandInputs(req.Files)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	req.Files = files

	validation := batch.ValidateFiles(files)
	fmt.Fprint(stdout, report.FileList(validation))
	if len(validation.Valid) == 0 {
		fmt.Fprintln(stderr, "Error: no valid images to process")
		return exitFailed
	}

	if err := req.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	memory.Configure(cfg.MemoryLimit, cfg.MemoryRatio)
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	defer monitor.Stop()
	req.Admit = monitor.Wait

	setupMetrics(map[string]string{
		"input":  commonDir(validation.Valid),
		"output": req.OutputDir,
	})

	// Sequential runs and the fallback path encode in this process even
	// when the subprocess backend is selected.
	if cfg.VipsEnabled && needsVips(validation.Valid) {
		if err := initVips(); err != nil {
			logging.Warn("libvips unavailable, WebP outputs will fail: %v", err)
		}
		defer shutdownVips()
	}

	var bar *progressBar
	switch {
	case opts.quiet:
	case isTerminal(stdout):
		bar = newProgressBar(stdout, terminalWidth(stdout))
		req.Progress = bar.Update
	default:
		req.Progress = logProgress
	}

	res, err := batch.Run(ctx, req)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(stderr, "Interrupted, batch cancelled")
			return exitInterrupted
		}
		fmt.Fprintf(stderr, "Error: batch failed: %v\n", err)
		return exitFailed
	}

	fmt.Fprintln(stdout)
	fmt.Fprint(stdout, report.Summary(res, report.DefaultMaxFailures))

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logging.Warn("%v", err)
		}
	}

	if !res.OK() {
		return exitFailed
	}
	return exitOK
}

func logProgress(p batch.Progress) {
	status := "ok"
	if !p.Success {
		status = "failed"
	}
	logging.Info("[%5.1f%%] %-6s %s", p.Percent, status, filepath.Base(p.File))
}

// needsVips reports whether any output will be WebP, the only format
// encoded through libvips.
func needsVips(files []string) bool {
	for _, f := range files {
		if mediatypes.FormatOf(f) == mediatypes.FormatWebP {
			return true
		}
	}
	return false
}

// commonDir returns the deepest directory containing every path.
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	dir := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		for !isWithin(dir, p) {
			parent := filepath.Dir(dir)
			if parent == dir {
				return dir
			}
			dir = parent
		}
	}
	return dir
}

func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
