package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"batch-resizer/internal/filesystem"
	"batch-resizer/internal/mediatypes"
)

// ExpandInputs replaces each directory in paths with the supported images
// directly inside it, sorted by name. Hidden files are skipped. Other
// paths are kept as given so the runner can report them.
func ExpandInputs(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := filesystem.StatWithRetry(p, filesystem.DefaultRetryConfig())
		if err != nil || !info.IsDir() {
			out = append(out, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", p, err)
		}

		var found []string
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || strings.HasPrefix(name, ".") || !mediatypes.IsSupported(name) {
				continue
			}
			found = append(found, filepath.Join(p, name))
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

// Validation splits a file list into usable and rejected files.
type Validation struct {
	Valid     []string    `json:"valid"`
	Invalid   []FileError `json:"invalid"`
	TotalSize int64       `json:"totalSize"`
}

// ValidateFiles checks that every path exists, is a regular file and has a
// supported extension. TotalSize is the combined size of the valid files.
func ValidateFiles(paths []string) Validation {
	var v Validation
	for _, p := range paths {
		info, err := filesystem.StatWithRetry(p, filesystem.DefaultRetryConfig())
		switch {
		case err != nil && os.IsNotExist(err):
			v.Invalid = append(v.Invalid, FileError{Path: p, Reason: "file not found", Kind: KindDecode})
		case err != nil:
			v.Invalid = append(v.Invalid, FileError{Path: p, Reason: err.Error(), Kind: KindDecode})
		case !info.Mode().IsRegular():
			v.Invalid = append(v.Invalid, FileError{Path: p, Reason: "not a file", Kind: KindDecode})
		case !mediatypes.IsSupported(p):
			v.Invalid = append(v.Invalid, FileError{Path: p, Reason: ErrUnsupportedFormat.Error(), Kind: KindUnsupported})
		default:
			v.Valid = append(v.Valid, p)
			v.TotalSize += info.Size()
		}
	}
	return v
}
