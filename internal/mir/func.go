package mir

import (
	"quill/internal/source"
)

type Func struct {
	Name string
	Span source.Span

	Locals []Local
	Blocks []Block
	Entry  BlockID
}

// Local returns the local for id, or nil when out of range.
func (f *Func) Local(id LocalID) *Local {
	if f == nil || id < 0 || int(id) >= len(f.Locals) {
		return nil
	}
	return &f.Locals[id]
}

// Block returns the block for id, or nil when out of range.
func (f *Func) Block(id BlockID) *Block {
	if f == nil || id < 0 || int(id) >= len(f.Blocks) {
		return nil
	}
	return &f.Blocks[id]
}
