package mediatypes

import (
	"path/filepath"
	"sort"
	"strings"
)

// Format identifies an image codec by its canonical name.
type Format string

const (
	// FormatJPEG is baseline/progressive JPEG.
	FormatJPEG Format = "jpeg"
	// FormatPNG is PNG.
	FormatPNG Format = "png"
	// FormatBMP is Windows bitmap.
	FormatBMP Format = "bmp"
	// FormatTIFF is TIFF.
	FormatTIFF Format = "tiff"
	// FormatWebP is WebP.
	FormatWebP Format = "webp"
	// FormatUnknown is returned for extensions outside the supported set.
	FormatUnknown Format = "unknown"
)

// ImageExtensions maps the supported input extensions to their formats.
// Keys are lowercase and include the leading dot.
var ImageExtensions = map[string]Format{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".bmp":  FormatBMP,
	".tiff": FormatTIFF,
	".webp": FormatWebP,
}

// MimeTypes maps formats to their MIME types.
var MimeTypes = map[Format]string{
	FormatJPEG: "image/jpeg",
	FormatPNG:  "image/png",
	FormatBMP:  "image/bmp",
	FormatTIFF: "image/tiff",
	FormatWebP: "image/webp",
}

// Ext returns the lowercase extension of path, including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsSupported reports whether path has a supported image extension.
// The check is case-insensitive and looks at the name only.
func IsSupported(path string) bool {
	_, ok := ImageExtensions[Ext(path)]
	return ok
}

// FormatOf returns the Format for path's extension, or FormatUnknown.
func FormatOf(path string) Format {
	if f, ok := ImageExtensions[Ext(path)]; ok {
		return f
	}
	return FormatUnknown
}

// GetMimeType returns the MIME type for a format.
// Returns "application/octet-stream" if the format is not recognized.
func GetMimeType(f Format) string {
	if mime, ok := MimeTypes[f]; ok {
		return mime
	}
	return "application/octet-stream"
}

// SupportedExtensions returns the supported extensions in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(ImageExtensions))
	for ext := range ImageExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
