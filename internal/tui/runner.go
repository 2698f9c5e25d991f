// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/simbatch/internal/progress"
	"github.com/matt-FFFFFF/simbatch/internal/scheduler"
	"github.com/matt-FFFFFF/simbatch/internal/task"
)

// eventBuffer bounds the progress events waiting to reach the program.
const eventBuffer = 256

// Runner manages the TUI application and progress event integration.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *progress.ChannelReporter
}

// programListener forwards progress events to the tea program.
type programListener struct {
	program *tea.Program
}

var _ progress.Listener = programListener{}

// OnEvent implements progress.Listener.
func (l programListener) OnEvent(event progress.Event) {
	if l.program == nil {
		return
	}

	l.program.Send(ProgressEventMsg{Event: event})
}

// NewRunner creates a TUI for tasks. onInterrupt is called when the user stops the batch.
func NewRunner(ctx context.Context, title string, tasks []*task.Task, onInterrupt func(), opts ...tea.ProgramOption) *Runner {
	model := NewModel(ctx, title, tasks, onInterrupt)

	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	}

	program := tea.NewProgram(model, opts...)

	return &Runner{
		model:    model,
		program:  program,
		reporter: progress.NewChannelReporter(ctx, eventBuffer),
	}
}

// Run starts the TUI and calls schedule with the TUI reporter. It returns once the batch finished
// and the user left the TUI.
func (r *Runner) Run(ctx context.Context, schedule func(progress.Reporter) scheduler.Report) (scheduler.Report, error) {
	reportCh := make(chan scheduler.Report, 1)

	r.reporter.Listen(programListener{program: r.program})

	go func() {
		reportCh <- schedule(r.reporter)
	}()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	var (
		rep scheduler.Report
		err error
	)

	select {
	case rep = <-reportCh:
		// Buffered events reach the model before the completion message.
		r.reporter.Close()
		r.program.Send(BatchCompletedMsg{Report: rep})

		err = <-tuiDone

	case err = <-tuiDone:
		// The TUI is gone. The batch was asked to stop or the context is done.
		r.reporter.Close()

		if r.model.onInterrupt != nil {
			r.model.onInterrupt()
		}

		rep = <-reportCh

	case <-ctx.Done():
		r.program.Quit()
		<-tuiDone

		r.reporter.Close()

		rep = <-reportCh
	}

	return rep, err
}
