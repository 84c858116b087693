package mir

import "quill/internal/source"

// Module is an ordered set of functions sharing one source file.
type Module struct {
	Name string
	// File holds the text spans point into.
	File  source.FileID
	Funcs []*Func
}

// Func returns the function with the given name.
func (m *Module) Func(name string) *Func {
	if m == nil {
		return nil
	}
	for _, f := range m.Funcs {
		if f != nil && f.Name == name {
			return f
		}
	}
	return nil
}
