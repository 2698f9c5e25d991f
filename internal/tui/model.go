// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"strings"
	"sync"
	"time"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/simbatch/internal/progress"
	"github.com/matt-FFFFFF/simbatch/internal/scheduler"
	"github.com/matt-FFFFFF/simbatch/internal/task"
)

// TaskStatus represents the current state of a task in the TUI.
type TaskStatus int

// Task states.
const (
	StatusPending TaskStatus = iota
	StatusRunning
	StatusSuccess
	StatusFailed
	StatusSkipped
)

// String returns a string representation of the task status.
func (s TaskStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// TaskNode is one line of the task list.
type TaskNode struct {
	ID         int
	Name       string
	Status     TaskStatus
	StartTime  *time.Time
	EndTime    *time.Time
	LastOutput string
	ErrorMsg   string
	mutex      sync.RWMutex
}

// NewTaskNode creates a pending task node.
func NewTaskNode(id int, name string) *TaskNode {
	return &TaskNode{ID: id, Name: name, Status: StatusPending}
}

// UpdateStatus safely updates the task status.
func (tn *TaskNode) UpdateStatus(status TaskStatus) {
	tn.mutex.Lock()
	defer tn.mutex.Unlock()

	tn.Status = status
	now := time.Now()

	switch status {
	case StatusRunning:
		if tn.StartTime == nil {
			tn.StartTime = &now
		}
	case StatusSuccess, StatusFailed:
		if tn.EndTime == nil {
			tn.EndTime = &now
		}
	}
}

// UpdateOutput safely updates the last output line.
func (tn *TaskNode) UpdateOutput(output string) {
	tn.mutex.Lock()
	defer tn.mutex.Unlock()

	if output = strings.TrimSpace(output); output == "" {
		return
	}

	lines := strings.Split(output, "\n")
	tn.LastOutput = strings.TrimSpace(lines[len(lines)-1])
}

// UpdateError safely updates the error message.
func (tn *TaskNode) UpdateError(err string) {
	tn.mutex.Lock()
	defer tn.mutex.Unlock()

	tn.ErrorMsg = err
}

// GetDisplayInfo safely retrieves display information.
func (tn *TaskNode) GetDisplayInfo() (TaskStatus, string, string, string, *time.Time, *time.Time) {
	tn.mutex.RLock()
	defer tn.mutex.RUnlock()

	return tn.Status, tn.Name, tn.LastOutput, tn.ErrorMsg, tn.StartTime, tn.EndTime
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	title       string
	nodes       []*TaskNode
	byID        map[int]*TaskNode
	counts      progress.Counts
	width       int
	height      int
	quitting    bool
	stopping    bool
	completed   bool
	report      *scheduler.Report
	onInterrupt func()
	mutex       sync.RWMutex

	viewport viewport.Model
	spinner  spinner.Model
	bar      bprogress.Model

	styles *Styles
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title   lipgloss.Style
	Pending lipgloss.Style
	Running lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Skipped lipgloss.Style
	Output  lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
	Border  lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Skipped: lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
	}
}

// NewModel creates a model listing tasks. onInterrupt is called when the user asks to stop the batch.
func NewModel(ctx context.Context, title string, tasks []*task.Task, onInterrupt func()) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := &Model{
		ctx:         ctx,
		title:       title,
		byID:        make(map[int]*TaskNode, len(tasks)),
		counts:      progress.Counts{Total: len(tasks)},
		onInterrupt: onInterrupt,
		viewport:    viewport.New(defaultWidth, defaultHeight),
		spinner:     s,
		bar:         bprogress.New(bprogress.WithDefaultGradient(), bprogress.WithWidth(progress.BarWidth)),
		styles:      NewStyles(),
	}

	for _, t := range tasks {
		n := NewTaskNode(t.ID, t.Name)
		m.nodes = append(m.nodes, n)
		m.byID[t.ID] = n
	}

	return m
}

// node returns the node of a task, adding it when the task was not listed.
func (m *Model) node(id int, name string) *TaskNode {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if n, ok := m.byID[id]; ok {
		return n
	}

	n := NewTaskNode(id, name)
	m.nodes = append(m.nodes, n)
	m.byID[id] = n

	return n
}

// processProgressEvent handles incoming progress events.
func (m *Model) processProgressEvent(event progress.Event) {
	if event.Type == progress.EventInterrupted {
		m.mutex.Lock()
		m.stopping = true
		m.mutex.Unlock()

		return
	}

	node := m.node(event.TaskID, event.TaskName)

	switch event.Type {
	case progress.EventStarted:
		node.UpdateStatus(StatusRunning)
	case progress.EventOutput:
		node.UpdateOutput(event.Line)
	case progress.EventCompleted:
		node.UpdateStatus(StatusSuccess)
	case progress.EventFailed:
		node.UpdateStatus(StatusFailed)
		node.UpdateError(event.Message)
	case progress.EventSkipped:
		node.UpdateStatus(StatusSkipped)
	}

	if event.Type.Finished() {
		m.mutex.Lock()
		m.counts = event.Counts
		m.mutex.Unlock()
	}
}

// settle brings the task list in line with the final report, since progress
// events may have been dropped on the way.
func (m *Model) settle(rep scheduler.Report) {
	var counts progress.Counts

	for _, t := range rep.Tasks {
		counts.Total++

		if !t.Done() {
			continue
		}

		counts.Processed++

		node := m.node(t.ID, t.Name)

		status, _, _, _, _, _ := node.GetDisplayInfo()
		if status != StatusPending && status != StatusRunning {
			if t.HasError() {
				counts.Errored++
			}

			continue
		}

		if t.HasError() {
			counts.Errored++
			node.UpdateStatus(StatusFailed)

			continue
		}

		node.UpdateStatus(StatusSuccess)
	}

	m.mutex.Lock()
	m.counts = counts
	m.mutex.Unlock()
}

// fraction is the share of processed tasks.
func (m *Model) fraction() float64 {
	if m.counts.Total == 0 {
		return 0
	}

	return float64(m.counts.Processed) / float64(m.counts.Total)
}
