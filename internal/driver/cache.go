package driver

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"quill/internal/diag"
	"quill/internal/project"
	"quill/internal/source"
)

// Current schema version - increment when cachedModule or the checker's
// output changes shape.
const resultCacheSchema uint16 = 1

// ResultCache хранит непрофильтрованные диагностики модуля на диске,
// ключ - хеш документа и исходника. Thread-safe for concurrent access.
type ResultCache struct {
	mu  sync.RWMutex
	dir string
}

// cachedModule is the on-disk payload. Spans are stored without a FileID:
// every span of a module points into the module's own file.
type cachedModule struct {
	Schema uint16
	Funcs  []cachedFunc
}

type cachedFunc struct {
	Name      string
	Malformed bool
	Diags     []cachedDiag
}

type cachedSpan struct {
	Set        bool
	Start, End uint32
}

type cachedDiag struct {
	Severity  uint8
	Code      uint16
	Message   string
	Primary   cachedSpan
	Label     string
	Secondary []cachedNote
	Notes     []cachedNote
	Fixes     []cachedFix
}

type cachedNote struct {
	Span cachedSpan
	Msg  string
}

type cachedFix struct {
	Title string
	Edits []cachedEdit
}

type cachedEdit struct {
	Span    cachedSpan
	NewText string
}

// OpenResultCache opens (creating when needed) a cache rooted at dir.
func OpenResultCache(dir string) (*ResultCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ResultCache{dir: dir}, nil
}

// Dir is where entries live.
func (c *ResultCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *ResultCache) pathFor(key project.Digest) string {
	// Для удобства очистки — подкаталог "mods".
	return filepath.Join(c.dir, "mods", key.Hex()+".mp")
}

// Put serializes the function results of a module.
func (c *ResultCache) Put(key project.Digest, funcs []FuncResult) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name()) //nolint:errcheck // gone after a successful rename
	}()

	if err := msgpack.NewEncoder(f).Encode(toCached(funcs)); err != nil {
		_ = f.Close() //nolint:errcheck // the encode error wins
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get restores the function results stored under key, attaching spans to
// file. A payload from another schema counts as a miss.
func (c *ResultCache) Get(key project.Digest, file source.FileID) ([]FuncResult, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close() //nolint:errcheck // read-only

	var payload cachedModule
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, err
	}
	if payload.Schema != resultCacheSchema {
		return nil, false, nil
	}
	return fromCached(&payload, file), true, nil
}

// DropAll removes every entry.
func (c *ResultCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "mods"))
}

// CacheKey derives the key of a module from the document bytes, the
// source file it names and the checker schema.
func CacheKey(document []byte, src *source.File) project.Digest {
	var srcHash project.Digest
	if src != nil {
		srcHash = src.Hash
	}
	return project.Combine(project.Sum(document), srcHash, project.SumStrings("quill-result", strconv.Itoa(int(resultCacheSchema))))
}

func toCachedSpan(sp source.Span) cachedSpan {
	if sp.IsZero() {
		return cachedSpan{}
	}
	return cachedSpan{Set: true, Start: sp.Start, End: sp.End}
}

func (s cachedSpan) restore(file source.FileID) source.Span {
	if !s.Set {
		return source.Span{}
	}
	return source.Span{File: file, Start: s.Start, End: s.End}
}

func toCached(funcs []FuncResult) *cachedModule {
	out := &cachedModule{Schema: resultCacheSchema, Funcs: make([]cachedFunc, len(funcs))}
	for i := range funcs {
		cf := cachedFunc{Name: funcs[i].Name, Malformed: funcs[i].Malformed}
		for _, d := range funcs[i].Diagnostics {
			cd := cachedDiag{
				Severity: uint8(d.Severity),
				Code:     uint16(d.Code),
				Message:  d.Message,
				Primary:  toCachedSpan(d.Primary),
				Label:    d.Label,
			}
			for _, l := range d.Secondary {
				cd.Secondary = append(cd.Secondary, cachedNote{Span: toCachedSpan(l.Span), Msg: l.Msg})
			}
			for _, n := range d.Notes {
				cd.Notes = append(cd.Notes, cachedNote{Span: toCachedSpan(n.Span), Msg: n.Msg})
			}
			for _, fx := range d.Fixes {
				cfx := cachedFix{Title: fx.Title}
				for _, e := range fx.Edits {
					cfx.Edits = append(cfx.Edits, cachedEdit{Span: toCachedSpan(e.Span), NewText: e.NewText})
				}
				cd.Fixes = append(cd.Fixes, cfx)
			}
			cf.Diags = append(cf.Diags, cd)
		}
		out.Funcs[i] = cf
	}
	return out
}

func fromCached(payload *cachedModule, file source.FileID) []FuncResult {
	out := make([]FuncResult, len(payload.Funcs))
	for i, cf := range payload.Funcs {
		fr := FuncResult{Name: cf.Name, Malformed: cf.Malformed}
		for _, cd := range cf.Diags {
			d := diag.Diagnostic{
				Severity: diag.Severity(cd.Severity),
				Code:     diag.Code(cd.Code),
				Message:  cd.Message,
				Primary:  cd.Primary.restore(file),
				Label:    cd.Label,
			}
			for _, l := range cd.Secondary {
				d.Secondary = append(d.Secondary, diag.Label{Span: l.Span.restore(file), Msg: l.Msg})
			}
			for _, n := range cd.Notes {
				d.Notes = append(d.Notes, diag.Note{Span: n.Span.restore(file), Msg: n.Msg})
			}
			for _, fx := range cd.Fixes {
				restored := diag.Fix{Title: fx.Title}
				for _, e := range fx.Edits {
					restored.Edits = append(restored.Edits, diag.FixEdit{Span: e.Span.restore(file), NewText: e.NewText})
				}
				d.Fixes = append(d.Fixes, restored)
			}
			fr.Diagnostics = append(fr.Diagnostics, d)
		}
		out[i] = fr
	}
	return out
}
