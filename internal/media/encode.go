package media

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"batch-resizer/internal/logging"
	"batch-resizer/internal/mediatypes"

	"github.com/disintegration/imaging"
)

const (
	// MinQuality and MaxQuality bound the lossy encoder quality.
	MinQuality = 1
	MaxQuality = 100
	// DefaultQuality is used when no quality is configured.
	DefaultQuality = 95
)

// ErrUnsupportedOutput is returned when the output extension has no encoder.
var ErrUnsupportedOutput = errors.New("unsupported output format")

// ClampQuality forces q into [MinQuality, MaxQuality].
func ClampQuality(q int) int {
	return clamp(q, MinQuality, MaxQuality)
}

// Encode writes img to w in format. quality applies to JPEG and WebP.
// PNG is written at best compression and TIFF with deflate.
func Encode(w io.Writer, img image.Image, format mediatypes.Format, quality int) error {
	q := ClampQuality(quality)

	switch format {
	case mediatypes.FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(q))
	case mediatypes.FormatPNG:
		return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	case mediatypes.FormatBMP:
		return imaging.Encode(w, img, imaging.BMP)
	case mediatypes.FormatTIFF:
		return imaging.Encode(w, img, imaging.TIFF)
	case mediatypes.FormatWebP:
		return encodeWebP(w, img, q)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedOutput, format)
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Save encodes img to path, picking the format from the extension. The data
// is written to a temporary file in the same directory and renamed into
// place, so path never holds a partial image. It returns the bytes written.
func Save(img image.Image, path string, quality int) (int64, error) {
	format := mediatypes.FormatOf(path)
	if format == mediatypes.FormatUnknown {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedOutput, filepath.Ext(path))
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".resize-*"+filepath.Ext(path))
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			if err := os.Remove(tmpName); err != nil && !os.IsNotExist(err) {
				logging.Warn("failed to remove temp file %s: %v", tmpName, err)
			}
		}
	}()

	bw := bufio.NewWriter(tmp)
	cw := &countingWriter{w: bw}
	if err := Encode(cw, img, format, quality); err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("failed to flush %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return 0, fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, fmt.Errorf("failed to move output into place: %w", err)
	}
	committed = true

	return cw.n, nil
}
