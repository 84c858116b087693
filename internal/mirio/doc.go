// Package mirio reads and writes MIR documents.
//
// A document is either TOML (*.mir.toml), meant for hand-written fixtures,
// or msgpack (*.mirpack), produced by `quill pack`. Both share the Document
// model. Places, operands and rvalues are strings in the notation the MIR
// printer uses:
//
//	x  x.1  p.*  buf[i]  buf[2..4]
//	copy x  move x  &unique buf in r3  null  42  fn launch
//	copy a + copy b  neg copy x  copy p as int  Pair{1, 2}  stack_alloc(int, 16)
//
// Documents carry a semver `format`; Load accepts SupportedFormats only.
package mirio
