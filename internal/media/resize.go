package media

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// Mode selects how a source image is fitted to the target size.
type Mode int

const (
	// Stretch scales both axes independently to the target size.
	Stretch Mode = iota
	// KeepRatio shrinks the image to fit inside the target size and pads
	// the remainder with white. Images are never enlarged.
	KeepRatio
	// Crop scales the image to cover the target size and trims the
	// overflow equally from both sides.
	Crop
)

var (
	// ErrUnknownMode is returned for Mode values outside the closed set.
	ErrUnknownMode = errors.New("unknown resize mode")
	// ErrInvalidSize is returned for non-positive target dimensions.
	ErrInvalidSize = errors.New("invalid target size")
)

// Modes lists every valid Mode.
var Modes = []Mode{Stretch, KeepRatio, Crop}

func (m Mode) String() string {
	switch m {
	case Stretch:
		return "stretch"
	case KeepRatio:
		return "keep_ratio"
	case Crop:
		return "crop"
	default:
		return "Mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= Stretch && m <= Crop
}

// ParseMode parses a mode name. Matching is case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stretch":
		return Stretch, nil
	case "keep_ratio", "keep-ratio", "keepratio", "fit", "pad":
		return KeepRatio, nil
	case "crop", "fill":
		return Crop, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// TargetSize is the exact output size in pixels.
type TargetSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate rejects non-positive dimensions.
func (s TargetSize) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, s.Width, s.Height)
	}
	return nil
}

func (s TargetSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// ParseSize parses "WIDTHxHEIGHT", e.g. "800x600".
func ParseSize(s string) (TargetSize, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return TargetSize{}, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return TargetSize{}, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return TargetSize{}, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	size := TargetSize{Width: width, Height: height}
	return size, size.Validate()
}

// Resize fits img to size using mode. The result is always exactly
// size.Width x size.Height.
func Resize(img image.Image, size TargetSize, mode Mode) (*image.NRGBA, error) {
	if err := size.Validate(); err != nil {
		return nil, err
	}
	if img.Bounds().Empty() {
		return nil, errors.New("source image has no pixels")
	}

	switch mode {
	case Stretch:
		return imaging.Resize(img, size.Width, size.Height, imaging.Lanczos), nil
	case KeepRatio:
		return letterbox(img, size), nil
	case Crop:
		return imaging.Fill(img, size.Width, size.Height, imaging.Center, imaging.Lanczos), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
}

// letterbox shrinks img to fit inside size and centres it on a white
// canvas. Odd remainders put the extra pixel on the right and bottom.
func letterbox(img image.Image, size TargetSize) *image.NRGBA {
	b := img.Bounds()
	w, h := FitSize(b.Dx(), b.Dy(), size.Width, size.Height)

	scaled := imaging.Resize(img, w, h, imaging.Lanczos)
	canvas := imaging.New(size.Width, size.Height, color.White)
	return imaging.Paste(canvas, scaled, image.Pt((size.Width-w)/2, (size.Height-h)/2))
}

// FitSize returns srcW x srcH scaled down to fit within maxW x maxH with the
// aspect ratio preserved. Sources that already fit are returned unchanged.
// Neither result dimension is ever below 1.
func FitSize(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= maxW && srcH <= maxH {
		return srcW, srcH
	}

	aspect := float64(srcW) / float64(srcH)
	w, h := maxW, maxH
	if aspect > float64(maxW)/float64(maxH) {
		h = int(math.Round(float64(maxW) / aspect))
	} else {
		w = int(math.Round(float64(maxH) * aspect))
	}

	return clamp(w, 1, maxW), clamp(h, 1, maxH)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
