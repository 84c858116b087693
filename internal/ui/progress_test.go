package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"quill/internal/driver"
)

func feed(m *progressModel, events ...driver.ProgressEvent) {
	for _, ev := range events {
		m.applyEvent(ev)
	}
}

func TestProgressTracksModules(t *testing.T) {
	m := NewProgressModel("checking", nil).(*progressModel)
	feed(m,
		driver.ProgressEvent{Module: "alpha", Func: "f", Status: driver.ProgressQueued},
		driver.ProgressEvent{Module: "alpha", Func: "g", Status: driver.ProgressQueued},
		driver.ProgressEvent{Module: "beta", Status: driver.ProgressCached},
		driver.ProgressEvent{Module: "alpha", Func: "f", Status: driver.ProgressStarted},
	)

	if len(m.items) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(m.items))
	}
	if got := m.items[0].status(); got != "checking" {
		t.Errorf("alpha status = %q", got)
	}
	if got := m.items[1].status(); got != "cached" {
		t.Errorf("beta status = %q", got)
	}
	if checked, total := m.counts(); checked != 1 || total != 3 {
		t.Errorf("counts = %d/%d, want 1/3", checked, total)
	}

	feed(m,
		driver.ProgressEvent{Module: "alpha", Func: "f", Status: driver.ProgressDone, Diagnostics: 2, Errors: 1},
		driver.ProgressEvent{Module: "alpha", Func: "g", Status: driver.ProgressStarted},
		driver.ProgressEvent{Module: "alpha", Func: "g", Status: driver.ProgressDone},
	)
	alpha := &m.items[0]
	if alpha.status() != "error" || alpha.errors != 1 || alpha.warnings != 1 {
		t.Errorf("alpha = %+v (%s)", *alpha, alpha.status())
	}
	if checked, total := m.counts(); checked != 3 || total != 3 {
		t.Errorf("counts = %d/%d, want 3/3", checked, total)
	}
}

func TestProgressView(t *testing.T) {
	m := NewProgressModel("checking", nil).(*progressModel)
	if m.View() != "" {
		t.Fatal("empty model must render nothing")
	}
	feed(m,
		driver.ProgressEvent{Module: "alpha", Func: "f", Status: driver.ProgressQueued},
		driver.ProgressEvent{Module: "alpha", Func: "f", Status: driver.ProgressStarted},
		driver.ProgressEvent{Module: "alpha", Func: "f", Status: driver.ProgressDone},
	)
	view := m.View()
	for _, want := range []string{"checking (1/1 functions)", "alpha", "done", "1/1"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestProgressQuitsWhenEventsClose(t *testing.T) {
	events := make(chan driver.ProgressEvent, 1)
	m := NewProgressModel("checking", events).(*progressModel)

	events <- driver.ProgressEvent{Module: "alpha", Func: "f", Status: driver.ProgressQueued}
	msg := m.listenForEvent()()
	if _, ok := msg.(eventMsg); !ok {
		t.Fatalf("expected eventMsg, got %T", msg)
	}

	close(events)
	msg = m.listenForEvent()()
	if _, ok := msg.(doneMsg); !ok {
		t.Fatalf("expected doneMsg, got %T", msg)
	}
	_, cmd := m.Update(msg)
	if !m.done || cmd == nil {
		t.Fatal("model must finish on doneMsg")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected quit command")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("internal/module.mir.toml", 10); got != "interna..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	for _, w := range []int{2, 4, 8, 12} {
		got := truncate("internal/borrowck/module.mir.toml", w)
		if n := runewidth.StringWidth(got); n != w {
			t.Errorf("truncate(%d) = %q, width %d", w, got, n)
		}
	}
}
