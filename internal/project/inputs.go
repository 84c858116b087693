package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"quill/internal/mirio"
)

// CollectInputs expands path into the MIR documents to check. A file is
// returned as is; a directory is walked, skipping hidden directories.
// The result is sorted so runs are deterministic.
func CollectInputs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if mirio.IsMIRFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}
	sort.Strings(files)
	return files, nil
}

// DisplayPath renders path relative to base when it lies inside it.
func DisplayPath(path, base string) string {
	if base == "" {
		return filepath.ToSlash(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	if rel, err := filepath.Rel(base, abs); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

func rootOf(manifestPath string) string {
	return filepath.Dir(manifestPath)
}
