package trace

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeRun, false},
		{LevelRun, ScopeRun, true},
		{LevelRun, ScopeModule, false},
		{LevelFunc, ScopeFunc, true},
		{LevelFunc, ScopeLoan, false},
		{LevelDebug, ScopeLoan, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if l, err := ParseLevel("FUNC"); err != nil || l != LevelFunc {
		t.Fatalf("ParseLevel(FUNC) = %v, %v", l, err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatAuto, "text": FormatText, "NDJSON": FormatNDJSON, "json": FormatNDJSON} {
		if got, err := ParseFormat(in); err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestRingKeepsNewest(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		r.Emit(&Event{Kind: KindPoint, Scope: ScopeFunc, Name: name})
	}
	got := r.Snapshot()
	if len(got) != 3 || got[0].Name != "c" || got[2].Name != "e" {
		t.Fatalf("snapshot = %+v", got)
	}
	if got[0].Seq >= got[1].Seq {
		t.Errorf("sequence not increasing: %d, %d", got[0].Seq, got[1].Seq)
	}
}

func TestStreamNDJSONAndFiltering(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelModule, FormatNDJSON)

	run := Begin(tr, ScopeRun, "check", 0)
	fn := Begin(tr, ScopeFunc, "func:main", run.ID())
	fn.End("")
	run.With("modules", "1").End("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	var end jsonEvent
	if err := json.Unmarshal([]byte(lines[1]), &end); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if end.Kind != "end" || end.Name != "check" || end.Detail != "ok" || end.Extra["modules"] != "1" {
		t.Errorf("end event = %+v", end)
	}
	if fn.ID() != 0 {
		t.Errorf("filtered span got id %d", fn.ID())
	}
}

func TestMultiCopiesEvents(t *testing.T) {
	a := NewRingTracer(4, LevelDebug)
	b := NewRingTracer(4, LevelDebug)
	m := NewMultiTracer(LevelDebug, a, b)
	Point(m, ScopeLoan, "borrowck:loan_start", "main", 0)
	if len(a.Snapshot()) != 1 || len(b.Snapshot()) != 1 {
		t.Fatalf("events not fanned out")
	}
	if ring, ok := m.Ring(); !ok || ring != a {
		t.Errorf("Ring() = %v, %v", ring, ok)
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff, Mode: ModeStream})
	if err != nil || tr.Enabled() {
		t.Fatalf("New(off) = %v, %v", tr, err)
	}
}
