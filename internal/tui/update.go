// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/simbatch/internal/progress"
	"github.com/matt-FFFFFF/simbatch/internal/scheduler"
)

const (
	defaultWidth                = 80
	defaultHeight               = 20
	minViewportWidth            = 20
	minStatusBarAvailableHeight = 10
	reservedLines               = 9
	taskDurationRounding        = 100 * time.Millisecond
	ellipsis                    = "..."
)

// ProgressEventMsg wraps a progress event for the tea framework.
type ProgressEventMsg struct {
	Event progress.Event
}

// BatchCompletedMsg indicates that the scheduler returned.
type BatchCompletedMsg struct {
	Report scheduler.Report
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	m.viewport, cmd = m.viewport.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mutex.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewportSize()
		m.mutex.Unlock()

		return m, cmd

	case spinner.TickMsg:
		var tick tea.Cmd

		m.spinner, tick = m.spinner.Update(msg)

		return m, tea.Batch(cmd, tick)

	case ProgressEventMsg:
		m.processProgressEvent(msg.Event)
		return m, cmd

	case BatchCompletedMsg:
		m.settle(msg.Report)

		m.mutex.Lock()
		m.completed = true
		m.report = &msg.Report
		m.mutex.Unlock()

		return m, cmd
	}

	return m, cmd
}

// handleKeyPress processes keyboard input. While the batch runs, the first q or ctrl+c stops it
// and a second one leaves the TUI.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch msg.String() {
	case "q", "ctrl+c":
		if !m.completed && !m.stopping {
			m.stopping = true

			if m.onInterrupt != nil {
				m.onInterrupt()
			}

			return m, nil
		}

		m.quitting = true

		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) updateViewportSize() {
	m.viewport.Width = max(m.width-2, minViewportWidth)
	m.viewport.Height = max(m.height-reservedLines, 1)
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var content strings.Builder

	for _, n := range m.nodes {
		m.renderTaskNode(&content, n)
	}

	if m.completed {
		content.WriteString("\n")

		switch {
		case m.report.Interrupted:
			content.WriteString(m.styles.Failed.Render("Batch interrupted"))
		case !m.report.Succeeded():
			content.WriteString(m.styles.Failed.Render("Batch completed with errors"))
		default:
			content.WriteString(m.styles.Success.Render("Batch completed successfully"))
		}

		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())

	var view strings.Builder

	view.WriteString(m.styles.Title.Render("simbatch " + m.title))
	view.WriteString("\n")
	view.WriteString(m.bar.ViewAs(m.fraction()))
	view.WriteString("  ")
	view.WriteString(progress.CountsText(m.counts))
	view.WriteString("\n")
	view.WriteString(m.styles.Border.Render(m.viewport.View()))

	if m.height == 0 || m.height > minStatusBarAvailableHeight {
		helpText := "↑/↓ to scroll, 'q' to stop the batch"

		switch {
		case m.completed:
			helpText = "↑/↓ to scroll, 'q' to quit and return to terminal"
		case m.stopping:
			helpText = "stopping, waiting for running tasks to be killed"
		}

		view.WriteString("\n")
		view.WriteString(m.styles.Help.Render(helpText))
	}

	return view.String()
}

// renderTaskNode renders one task with its output or error on the right.
func (m *Model) renderTaskNode(b *strings.Builder, node *TaskNode) {
	status, name, output, errorMsg, startTime, endTime := node.GetDisplayInfo()

	var statusIcon, styledName string

	switch status {
	case StatusRunning:
		statusIcon = m.spinner.View()
		styledName = m.styles.Running.Render(name)
	case StatusSuccess:
		statusIcon = "✓"
		styledName = m.styles.Success.Render(name)
	case StatusFailed:
		statusIcon = "✗"
		styledName = m.styles.Failed.Render(name)
	case StatusSkipped:
		statusIcon = "~"
		styledName = m.styles.Skipped.Render(name)
	default:
		statusIcon = "·"
		styledName = m.styles.Pending.Render(name)
	}

	leftSide := fmt.Sprintf("%s %s", statusIcon, styledName)

	if startTime != nil {
		elapsed := time.Since(*startTime)
		if endTime != nil {
			elapsed = endTime.Sub(*startTime)
		}

		leftSide += m.styles.Output.Render(fmt.Sprintf(" (%v)", elapsed.Round(taskDurationRounding)))
	}

	var rightSide string

	switch {
	case errorMsg != "" && status == StatusFailed:
		rightSide = m.styles.Error.Render(truncate("Error: "+errorMsg, m.viewport.Width/2))
	case output != "" && status == StatusRunning:
		rightSide = m.styles.Output.Render(truncate(output, m.viewport.Width/2))
	}

	leftWidth := max(m.viewport.Width/2, minViewportWidth/2)
	if pad := leftWidth - lipgloss.Width(leftSide); pad > 0 {
		leftSide += strings.Repeat(" ", pad)
	}

	b.WriteString(leftSide)
	b.WriteString(rightSide)
	b.WriteString("\n")
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}

	if width <= len(ellipsis) {
		return string(r[:width])
	}

	return string(r[:width-len(ellipsis)]) + ellipsis
}
