package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"batch-resizer/internal/media"

	"github.com/dustin/go-humanize"
)

func infoCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: resizer info <files...>")
		return exitUsage
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tFORMAT\tSIZE\tCOLOR\tBYTES")

	code := exitOK
	for _, path := range args {
		info, err := media.Inspect(path)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", path, err)
			code = exitFailed
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%s\t%s\n",
			info.Path, info.Format, info.Width, info.Height, info.ColorModel, humanize.IBytes(uint64(info.Size)))
	}

	if err := tw.Flush(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	return code
}
