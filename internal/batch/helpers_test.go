package batch

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"batch-resizer/internal/media"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// writeImage saves a w x h gradient image at dir/name, format by extension.
func writeImage(t *testing.T, dir, name string, w, h int) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// scenario builds the canonical three-file batch: a good PNG, a corrupt
// JPEG and a good BMP.
func scenario(t *testing.T) (files []string, outDir string) {
	t.Helper()
	in := t.TempDir()
	files = []string{
		writeImage(t, in, "a.png", 400, 200),
		writeFile(t, in, "b.jpg", "this is not a jpeg"),
		writeImage(t, in, "c.bmp", 200, 400),
	}
	return files, filepath.Join(t.TempDir(), "out")
}

func cropRequest(files []string, outDir string) Request {
	return Request{
		Files:     files,
		OutputDir: outDir,
		Size:      media.TargetSize{Width: 300, Height: 300},
		Mode:      media.Crop,
		Quality:   90,
	}
}

func requireDims(t *testing.T, path string, w, h int) {
	t.Helper()
	img, err := imaging.Open(path)
	require.NoError(t, err)
	require.Equal(t, w, img.Bounds().Dx(), "width of %s", path)
	require.Equal(t, h, img.Bounds().Dy(), "height of %s", path)
}

// progressRecorder collects progress events and flags concurrent calls.
type progressRecorder struct {
	active     atomic.Int32
	concurrent atomic.Bool
	mu         sync.Mutex
	events     []Progress
}

func (p *progressRecorder) record(ev Progress) {
	if p.active.Add(1) > 1 {
		p.concurrent.Store(true)
	}
	defer p.active.Add(-1)
	runtime.Gosched()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}
