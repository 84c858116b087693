package fuzztests

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quill/internal/mirio"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB — ограничение для тестового корпуса
	maxFuzzInput = 1 << 16
)

// testdataRoots are the package fixtures reused as seeds.
var testdataRoots = []string{
	filepath.Join("..", "mirio", "testdata"),
	filepath.Join("..", "driver", "testdata"),
}

// fixtureDocuments reads every *.mir.toml fixture.
func fixtureDocuments() [][]byte {
	var docs [][]byte
	for _, root := range testdataRoots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil || d.IsDir() || !strings.HasSuffix(path, mirio.ExtTOML) {
				return nil
			}
			// #nosec G304 -- path comes from repository testdata walk
			src, err := os.ReadFile(path)
			if err != nil {
				return nil
			}
			docs = append(docs, clampSeed(src))
			return nil
		})
	}
	return docs
}

func addTOMLSeeds(f *testing.F) {
	for _, doc := range fixtureDocuments() {
		f.Add(doc)
	}
	// минимальные примеры на случай пустого testdata
	f.Add([]byte{})
	f.Add([]byte("format = \"1.0\"\nmodule = \"m\"\n[[func]]\nname = \"f\"\n  [[func.block]]\n  stmts = []\n  term = { op = \"return\" }\n"))
}

// addPackSeeds packs every fixture that decodes cleanly.
func addPackSeeds(f *testing.F) {
	for _, src := range fixtureDocuments() {
		doc, err := mirio.DecodeTOML(bytes.NewReader(src))
		if err != nil {
			continue
		}
		var buf bytes.Buffer
		if err := mirio.Pack(doc, &buf); err != nil {
			continue
		}
		f.Add(buf.Bytes())
	}
	f.Add([]byte{0x80})
}

func addValueSeeds(f *testing.F) {
	for _, v := range []string{
		"1",
		"copy x",
		"move p",
		"&unique x in r1",
		"&shared buf[0] in r2",
		"&raw x in r0",
		"copy p.*.1",
		"copy buf[i]",
		"copy buf[1..4]",
		"copy x + 1",
		"neg copy x",
		"Pair{1, copy x}",
		"null",
		"mmio_read<32>(0x4000)",
		"<pending>",
		"copy w.1",
	} {
		f.Add(v)
	}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}

// truncateForLog truncates input for logging purposes
func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], []byte("...")...)
}
