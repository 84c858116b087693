package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"quill/internal/driver"
	"quill/internal/source"
	"quill/internal/ui"
)

type runOutcome struct {
	result *driver.RunResult
	err    error
}

// runWithUI checks paths while a Bubble Tea view renders the progress events.
func runWithUI(ctx context.Context, out io.Writer, title string, paths []string, fs *source.FileSet, opts driver.Options) (*driver.RunResult, error) {
	events := make(chan driver.ProgressEvent, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		opts.Observer = func(ev driver.ProgressEvent) {
			events <- ev
		}
		res, err := driver.Run(ctx, paths, fs, &opts)
		outcomeCh <- runOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// вид мог закрыться раньше: дочитываем события, чтобы проверка не встала
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil && ctx.Err() == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
