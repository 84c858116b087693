package source

type (
	// FileID identifies a file within one FileSet.
	FileID uint32
	// FileFlags records how a file entered the set and what Load normalized.
	FileFlags uint8
)

const (
	// FileVirtual marks files added from memory: tests, stand-ins for
	// documents without a source, load failures.
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
	FileNormalizedNFC
)

// File is one text file spans can point into.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of every '\n'
	Hash    [32]byte
	Flags   FileFlags
}

// HasText reports whether snippets and previews can be cut from f.
// Stand-in files for documents without a source have none.
func (f *File) HasText() bool {
	return f != nil && len(f.Content) > 0
}

// LineCol is a 1-based line and byte column.
type LineCol struct {
	Line uint32
	Col  uint32
}
