// Package fuzztests houses Go fuzz harnesses for the quill pipeline
// (document decoding -> MIR build -> validation -> borrow check). The goal is
// to smoke test robustness and guard against panics or hangs on arbitrary
// documents.
//
// Назначение: прогонять произвольные байты через mirio и borrowck.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/mirio, internal/mir, internal/borrowck, internal/source.
package fuzztests
