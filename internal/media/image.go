package media

import (
	"fmt"
	"image"
	"image/color"

	"batch-resizer/internal/filesystem"
	"batch-resizer/internal/logging"
	"batch-resizer/internal/mediatypes"

	// Image format decoders
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

// Decode opens path and decodes it with EXIF orientation applied, so the
// returned image is upright. Orientation is read from JPEG EXIF only; TIFF,
// PNG and WebP files are returned as stored.
func Decode(path string) (image.Image, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("image %s has no pixels", path)
	}
	return img, nil
}

// Flatten composites images that carry transparency or a palette onto a
// white background. Opaque truecolor images are returned unchanged.
func Flatten(img image.Image) image.Image {
	if _, ok := img.(*image.Paletted); ok {
		return onWhite(img)
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	return onWhite(img)
}

func onWhite(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func decodeConfig(path string) (image.Config, string, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return image.Config{}, "", err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	return image.DecodeConfig(file)
}

// Info describes an image file on disk.
type Info struct {
	Path       string            `json:"path"`
	Format     mediatypes.Format `json:"format"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	ColorModel string            `json:"colorModel"`
	Size       int64             `json:"size"`
}

// Inspect reads the header of the image at path without decoding pixels.
// Format is the codec that decoded the header, which may differ from the
// extension. Width and Height are as stored; EXIF orientation is not applied.
func Inspect(path string) (*Info, error) {
	stat, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	cfg, name, err := decodeConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	return &Info{
		Path:       path,
		Format:     formatName(name),
		Width:      cfg.Width,
		Height:     cfg.Height,
		ColorModel: colorModelName(cfg.ColorModel),
		Size:       stat.Size(),
	}, nil
}

func formatName(name string) mediatypes.Format {
	switch f := mediatypes.Format(name); f {
	case mediatypes.FormatJPEG, mediatypes.FormatPNG, mediatypes.FormatBMP,
		mediatypes.FormatTIFF, mediatypes.FormatWebP:
		return f
	}
	return mediatypes.FormatUnknown
}

func colorModelName(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "paletted"
	}
	switch m {
	case color.RGBAModel:
		return "rgba"
	case color.RGBA64Model:
		return "rgba64"
	case color.NRGBAModel:
		return "nrgba"
	case color.NRGBA64Model:
		return "nrgba64"
	case color.GrayModel:
		return "gray"
	case color.Gray16Model:
		return "gray16"
	case color.YCbCrModel:
		return "ycbcr"
	case color.CMYKModel:
		return "cmyk"
	default:
		return "unknown"
	}
}
