package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"quill/internal/driver"
)

type progressModel struct {
	title   string
	events  <-chan driver.ProgressEvent
	spinner spinner.Model
	prog    progress.Model
	items   []moduleItem
	index   map[string]int
	started time.Time
	width   int
	done    bool
}

// moduleItem is one row: a module and the state of its functions.
type moduleItem struct {
	name     string
	total    int
	running  int
	checked  int
	errors   int
	warnings int
	cached   bool
}

func (it *moduleItem) status() string {
	switch {
	case it.cached:
		return "cached"
	case it.total > 0 && it.checked == it.total && it.errors > 0:
		return "error"
	case it.total > 0 && it.checked == it.total:
		return "done"
	case it.running > 0 || it.checked > 0:
		return "checking"
	default:
		return "queued"
	}
}

type eventMsg driver.ProgressEvent
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders check progress.
// The model quits once events is closed.
func NewProgressModel(title string, events <-chan driver.ProgressEvent) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		index:   make(map[string]int),
		started: time.Now(),
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(driver.ProgressEvent(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		// прерывание обрабатывает вызывающий через контекст
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	checked, total := m.counts()
	header := fmt.Sprintf("%s (%d/%d functions)", m.title, checked, total)
	if m.done {
		header = fmt.Sprintf("done: %s in %s", header, time.Since(m.started).Round(time.Millisecond))
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := max(m.width-statusWidth-20, 20)
	for i := range m.items {
		item := &m.items[i]
		status := item.status()
		statusStyled := styleStatus(status).Render(fmt.Sprintf("%12s", status))
		fmt.Fprintf(&b, "  %s %s%s\n", statusStyled, truncate(item.name, nameWidth), itemDetail(item))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func itemDetail(it *moduleItem) string {
	if it.cached {
		return ""
	}
	detail := fmt.Sprintf("  %d/%d", it.checked, it.total)
	if it.errors > 0 {
		detail += fmt.Sprintf(", %d errors", it.errors)
	}
	if it.warnings > 0 {
		detail += fmt.Sprintf(", %d warnings", it.warnings)
	}
	return detail
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) item(module string) *moduleItem {
	idx, ok := m.index[module]
	if !ok {
		idx = len(m.items)
		m.items = append(m.items, moduleItem{name: module})
		m.index[module] = idx
	}
	return &m.items[idx]
}

func (m *progressModel) applyEvent(ev driver.ProgressEvent) tea.Cmd {
	it := m.item(ev.Module)
	switch ev.Status {
	case driver.ProgressQueued:
		it.total++
	case driver.ProgressStarted:
		it.running++
	case driver.ProgressDone:
		it.running = max(it.running-1, 0)
		it.checked++
		it.errors += ev.Errors
		it.warnings += ev.Diagnostics - ev.Errors
	case driver.ProgressCached:
		it.cached = true
	}

	checked, total := m.counts()
	if total == 0 {
		return nil
	}
	return m.prog.SetPercent(float64(checked) / float64(total))
}

// counts sums checked and known functions; cached modules count as one finished unit.
func (m *progressModel) counts() (checked, total int) {
	for i := range m.items {
		it := &m.items[i]
		if it.cached {
			checked++
			total++
			continue
		}
		checked += it.checked
		total += it.total
	}
	return checked, total
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done", "cached":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "checking":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
