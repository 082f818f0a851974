package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"batch-resizer/internal/batch"
	"batch-resizer/internal/report"

	"golang.org/x/term"
)

const (
	defaultTermWidth = 80
	maxBarWidth      = 40
	maxNameWidth     = 32
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultTermWidth
}

// progressBar redraws a single status line on a terminal.
type progressBar struct {
	w      io.Writer
	width  int
	done   int
	failed int
}

func newProgressBar(w io.Writer, termWidth int) *progressBar {
	width := termWidth - maxNameWidth - 30
	if width > maxBarWidth {
		width = maxBarWidth
	}
	if width < 10 {
		width = 10
	}
	return &progressBar{w: w, width: width}
}

// Update draws p. Progress callbacks are serialized by the runner.
func (b *progressBar) Update(p batch.Progress) {
	b.done++
	if !p.Success {
		b.failed++
	}
	fmt.Fprintf(b.w, "\r%s\x1b[K", b.render(p))
}

func (b *progressBar) render(p batch.Progress) string {
	filled := int(p.Percent / 100 * float64(b.width))
	if filled > b.width {
		filled = b.width
	}
	if filled < 0 {
		filled = 0
	}

	line := fmt.Sprintf("[%s%s] %5.1f%%  %s",
		strings.Repeat("=", filled), strings.Repeat(" ", b.width-filled),
		p.Percent, report.Truncate(filepath.Base(p.File), maxNameWidth))
	if b.failed > 0 {
		line += fmt.Sprintf("  (%d failed)", b.failed)
	}
	return line
}

// Finish ends the status line.
func (b *progressBar) Finish() {
	if b.done > 0 {
		fmt.Fprintln(b.w)
	}
}
