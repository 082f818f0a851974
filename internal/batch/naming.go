package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"batch-resizer/internal/filesystem"
)

const (
	resizedSuffix = "_resized"
	// maxCollisionSuffix bounds the _N search before falling back to a
	// timestamp.
	maxCollisionSuffix = 1000
)

// OutputPath returns the default output path for input: the input's base
// name with "_resized" inserted before the extension, inside outputDir.
func OutputPath(outputDir, input string) string {
	return filepath.Join(outputDir, resizedName(input, ""))
}

func resizedName(input, tag string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return stem + resizedSuffix + tag + ext
}

// outputNamer assigns output paths for one batch.
type outputNamer struct {
	dir    string
	policy CollisionPolicy
	taken  map[string]struct{}
}

func newOutputNamer(dir string, policy CollisionPolicy) *outputNamer {
	return &outputNamer{dir: dir, policy: policy, taken: make(map[string]struct{})}
}

func (n *outputNamer) next(input string) string {
	if n.policy != Suffix {
		return OutputPath(n.dir, input)
	}

	candidate := OutputPath(n.dir, input)
	for i := 1; n.inUse(candidate); i++ {
		if i > maxCollisionSuffix {
			candidate = filepath.Join(n.dir, resizedName(input, fmt.Sprintf("_%d", time.Now().UnixNano())))
			break
		}
		candidate = filepath.Join(n.dir, resizedName(input, fmt.Sprintf("_%d", i)))
	}

	n.taken[candidate] = struct{}{}
	return candidate
}

func (n *outputNamer) inUse(path string) bool {
	if _, ok := n.taken[path]; ok {
		return true
	}
	_, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	return !os.IsNotExist(err)
}
