package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ManifestName is the configuration file looked up from the input path.
const ManifestName = "quill.toml"

// FindManifest returns the nearest quill.toml at or above start, or "" when
// there is none. A file path starts the search in its directory.
func FindManifest(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", start, err)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for _, d := range ancestors(dir) {
		candidate := filepath.Join(d, ManifestName)
		info, err := os.Stat(candidate)
		switch {
		case err == nil && !info.IsDir():
			return candidate, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
	}
	return "", nil
}

// ancestors lists dir and every parent up to the filesystem root.
func ancestors(dir string) []string {
	out := []string{dir}
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return out
		}
		out = append(out, parent)
		dir = parent
	}
}
