// Package mediatypes defines the image formats the resizer accepts.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles.
//
// # Supported Formats
//
// Input files are accepted by extension only, case-insensitively:
//
//	.jpg .jpeg .png .bmp .tiff .webp
//
// Use IsSupported to filter a file list and FormatOf to pick an encoder for an
// output path:
//
//	if !mediatypes.IsSupported(path) {
//	    // record "unsupported format"
//	}
//	format := mediatypes.FormatOf(outputPath) // e.g. mediatypes.FormatPNG
package mediatypes
