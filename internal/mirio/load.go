package mirio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/vmihailenco/msgpack/v5"

	"quill/internal/mir"
	"quill/internal/source"
	"quill/internal/types"
)

// CurrentFormat is written by Pack when a document leaves Format empty.
const CurrentFormat = "1.0"

// SupportedFormats is the accepted range of document format versions.
const SupportedFormats = "^1.0"

var supported = semver.MustParse(CurrentFormat)

// Extensions recognised by Load.
const (
	ExtTOML = ".mir.toml"
	ExtPack = ".mirpack"
)

// Unit is a loaded document together with everything built from it.
type Unit struct {
	Path   string
	Doc    *Document
	Module *mir.Module
	Types  *types.Interner
}

// IsMIRFile reports whether path has one of the document extensions.
func IsMIRFile(path string) bool {
	return strings.HasSuffix(path, ExtTOML) || strings.HasSuffix(path, ExtPack)
}

// CheckFormat validates a document format version against
// SupportedFormats.
func CheckFormat(v string) error {
	if v == "" {
		return fmt.Errorf("%w: missing `format`", ErrUnsupportedFormat)
	}
	ver, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnsupportedFormat, v, err)
	}
	c, err := semver.NewConstraint(SupportedFormats)
	if err != nil {
		return err
	}
	if !c.Check(ver) {
		return fmt.Errorf("%w: %s (supported %s, current %s)", ErrUnsupportedFormat, ver, SupportedFormats, supported)
	}
	return nil
}

// DecodeTOML reads the text form. Keys the document model does not know
// are rejected so typos do not silently drop statements.
func DecodeTOML(r io.Reader) (*Document, error) {
	var doc Document
	meta, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%w: unknown keys %s", ErrMalformed, strings.Join(keys, ", "))
	}
	if !meta.IsDefined("format") {
		return nil, fmt.Errorf("%w: missing `format`", ErrUnsupportedFormat)
	}
	return &doc, nil
}

// DecodePack reads the msgpack form.
func DecodePack(r io.Reader) (*Document, error) {
	var doc Document
	if err := msgpack.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return &doc, nil
}

// Pack writes doc in msgpack form.
func Pack(doc *Document, w io.Writer) error {
	if doc == nil {
		return errors.New("pack: nil document")
	}
	out := *doc
	if out.Format == "" {
		out.Format = CurrentFormat
	}
	if err := CheckFormat(out.Format); err != nil {
		return err
	}
	enc := msgpack.NewEncoder(w)
	enc.SetOmitEmpty(true)
	return enc.Encode(&out)
}

// ReadDocument decodes path according to its extension.
func ReadDocument(path string) (*Document, error) {
	// #nosec G304 -- path is provided by the caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(path, data)
}

// DecodeBytes decodes data read from path; the extension selects the form.
func DecodeBytes(path string, data []byte) (*Document, error) {
	var (
		doc *Document
		err error
	)
	if strings.HasSuffix(path, ExtPack) {
		doc, err = DecodePack(bytes.NewReader(data))
	} else {
		doc, err = DecodeTOML(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Load reads, version-checks and builds a document. The source file it
// names, relative to the document, is added to files; without one a
// virtual empty file stands in so every span still has a file.
func Load(path string, files *source.FileSet) (*Unit, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return FromDocument(path, doc, files)
}

// FromDocument builds an already decoded document.
func FromDocument(path string, doc *Document, files *source.FileSet) (*Unit, error) {
	if err := CheckFormat(doc.Format); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var (
		file source.FileID
		err  error
	)
	if doc.Source != "" {
		src := doc.Source
		if !filepath.IsAbs(src) {
			src = filepath.Join(filepath.Dir(path), src)
		}
		if file, err = files.Load(src); err != nil {
			return nil, fmt.Errorf("%s: source: %w", path, err)
		}
	} else {
		file = files.AddVirtual(path, nil)
	}

	in := types.NewInterner()
	m, err := Build(doc, in, file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(strings.TrimSuffix(filepath.Base(path), ExtTOML), ExtPack)
	}
	return &Unit{Path: path, Doc: doc, Module: m, Types: in}, nil
}
