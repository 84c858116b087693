package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"quill/internal/driver"
	"quill/internal/project"
)

// loadManifest reads --config when given, otherwise searches upwards from
// the first input for quill.toml. Without one the defaults apply.
func loadManifest(cmd *cobra.Command, firstInput string) (*project.Manifest, error) {
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if configPath != "" {
		m, _, err := project.Load(configPath)
		return m, err
	}
	start := firstInput
	if start == "" {
		start = "."
	}
	m, _, err := project.Discover(start)
	return m, err
}

// openCache opens the result cache named by [cache] relative to the
// project root, or returns nil when caching is off.
func openCache(m *project.Manifest, disabled bool) (*driver.ResultCache, error) {
	if disabled || m == nil || !m.Config.Cache.Enabled {
		return nil, nil
	}
	dir := m.Config.Cache.Dir
	if !filepath.IsAbs(dir) {
		base := m.Root
		if base == "" {
			wd, err := os.Getwd()
			if err != nil {
				return nil, err
			}
			base = wd
		}
		dir = filepath.Join(base, dir)
	}
	return driver.OpenResultCache(dir)
}
