package project_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill/internal/diag"
	"quill/internal/project"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, project.ManifestName), `
[check]
jobs = 2
allow = ["lcl0004"]

[trace]
level = "func"
`)
	nested := filepath.Join(root, "a", "b")
	writeFile(t, filepath.Join(nested, "x.mir.toml"), "")

	m, ok, err := project.Discover(filepath.Join(nested, "x.mir.toml"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, root, m.Root)
	assert.Equal(t, 2, m.Config.Check.Jobs)
	assert.Equal(t, project.DefaultMaxDiagnostics, m.Config.Check.MaxDiagnostics, "absent keys keep defaults")
	assert.Equal(t, "func", m.Config.Trace.Level)
	assert.Equal(t, "stream", m.Config.Trace.Mode)

	codes, err := m.Config.Check.AllowedCodes()
	require.NoError(t, err)
	assert.Equal(t, []diag.Code{diag.LclNullDeref}, codes)
}

func TestDiscoverWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	m, ok, err := project.Discover(dir)
	require.NoError(t, err)
	// Запуск может оказаться внутри чужого проекта выше TempDir.
	if ok {
		t.Skip("a quill.toml exists above the temp directory")
	}
	assert.Equal(t, project.Default(), m.Config)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "[check]\njobz = 1\n", "check.jobz"},
		{"bad code", "[check]\nallow = [\"XYZ0001\"]\n", "XYZ0001"},
		{"negative jobs", "[check]\njobs = -1\n", "jobs"},
		{"zero max", "[check]\nmax_diagnostics = 0\n", "max_diagnostics"},
		{"syntax", "[check\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), project.ManifestName)
			writeFile(t, path, tt.content)
			_, err := project.LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCollectInputs(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b.mir.toml", "a.mirpack", "sub/c.mir.toml", ".hidden/d.mir.toml", "notes.txt"} {
		writeFile(t, filepath.Join(root, name), "")
	}
	files, err := project.CollectInputs(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.mirpack"),
		filepath.Join(root, "b.mir.toml"),
		filepath.Join(root, "sub", "c.mir.toml"),
	}, files)

	single, err := project.CollectInputs(filepath.Join(root, "notes.txt"))
	require.NoError(t, err)
	assert.Len(t, single, 1)

	_, err = project.CollectInputs(filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestDigest(t *testing.T) {
	a := project.Sum([]byte("a"))
	b := project.Sum([]byte("b"))
	assert.NotEqual(t, project.Combine(a, b), project.Combine(b, a))
	assert.NotEqual(t, project.SumStrings("ab"), project.SumStrings("a", "b"))
	assert.Len(t, a.Hex(), 64)
	assert.True(t, project.Digest{}.IsZero())
}

func TestDisplayPath(t *testing.T) {
	base := t.TempDir()
	assert.Equal(t, "x/y.mir.toml", project.DisplayPath(filepath.Join(base, "x", "y.mir.toml"), base))
	assert.Equal(t, "other.mir.toml", project.DisplayPath("other.mir.toml", ""))
}
