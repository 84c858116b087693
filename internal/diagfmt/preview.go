package diagfmt

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"quill/internal/diag"
	"quill/internal/source"
)

type fixEditPreview struct {
	before []string
	after  []string
}

// buildFixEditPreview applies one edit to the lines it touches.
func buildFixEditPreview(fs *source.FileSet, edit diag.FixEdit) (fixEditPreview, error) {
	if fs == nil {
		return fixEditPreview{}, fmt.Errorf("nil FileSet")
	}
	file := fs.Get(edit.Span.File)
	if file == nil {
		return fixEditPreview{}, fmt.Errorf("file %d not found in FileSet", edit.Span.File)
	}
	if !file.HasText() {
		return fixEditPreview{}, fmt.Errorf("%s has no source text", file.Path)
	}

	startPos, endPos := fs.Resolve(edit.Span)
	endLine := max(endPos.Line, startPos.Line)

	blockStart, err := lineStartOffset(file, startPos.Line)
	if err != nil {
		return fixEditPreview{}, err
	}
	blockEnd, err := lineEndOffsetInclusive(file, endLine)
	if err != nil {
		return fixEditPreview{}, err
	}
	blockEnd = max(blockEnd, blockStart)

	original := file.Content[blockStart:blockEnd]
	if edit.Span.Start < blockStart || edit.Span.End < edit.Span.Start || edit.Span.End > blockEnd {
		return fixEditPreview{}, fmt.Errorf("edit span %d..%d out of range for preview block", edit.Span.Start, edit.Span.End)
	}
	relStart := int(edit.Span.Start - blockStart)
	relEnd := int(edit.Span.End - blockStart)

	after := make([]byte, 0, len(original)+len(edit.NewText))
	after = append(after, original[:relStart]...)
	after = append(after, edit.NewText...)
	after = append(after, original[relEnd:]...)

	return fixEditPreview{
		before: splitPreviewLines(original),
		after:  splitPreviewLines(after),
	}, nil
}

func splitPreviewLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	// завершающий \n не даёт пустой строки
	return strings.Split(strings.TrimRight(string(content), "\n"), "\n")
}

func lineStartOffset(f *source.File, line uint32) (uint32, error) {
	if line <= 1 {
		return 0, nil
	}
	idx := line - 2
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx] + 1, nil
	}
	return contentLen(f)
}

func lineEndOffsetInclusive(f *source.File, line uint32) (uint32, error) {
	if line == 0 {
		return 0, nil
	}
	idx := line - 1
	if int(idx) < len(f.LineIdx) {
		return f.LineIdx[idx] + 1, nil
	}
	return contentLen(f)
}

func contentLen(f *source.File) (uint32, error) {
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		return 0, fmt.Errorf("len file content overflow: %w", err)
	}
	return n, nil
}
