// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// EventType is what happened to a task.
type EventType int

const (
	// EventStarted is sent when a worker starts a task.
	EventStarted EventType = iota
	// EventOutput carries one line of simulator output.
	EventOutput
	// EventCompleted is sent when a task finished without errors.
	EventCompleted
	// EventFailed is sent when a task finished with errors or was aborted.
	EventFailed
	// EventSkipped is sent when a task already had a result and was not run again.
	EventSkipped
	// EventInterrupted is sent once when the batch is interrupted.
	EventInterrupted
)

// String implements fmt.Stringer.
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "started"
	case EventOutput:
		return "output"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventSkipped:
		return "skipped"
	case EventInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Finished reports whether the event closes a task.
func (et EventType) Finished() bool {
	return et == EventCompleted || et == EventFailed || et == EventSkipped
}

// Counts is the batch progress after an event.
type Counts struct {
	Processed int
	Errored   int
	Total     int
}

// Event is one progress update.
type Event struct {
	Type      EventType
	TaskID    int
	TaskName  string
	Counts    Counts
	Line      string        // EventOutput
	Elapsed   time.Duration // finished events
	Message   string        // first error of a failed task
	Timestamp time.Time
}

// Reporter receives events. Report must not block the scheduler.
type Reporter interface {
	Report(event Event)
	Close()
}

// Listener consumes events forwarded by a ChannelReporter.
type Listener interface {
	OnEvent(event Event)
}

// NullReporter drops every event.
type NullReporter struct{}

// Report implements Reporter.
func (NullReporter) Report(Event) {}

// Close implements Reporter.
func (NullReporter) Close() {}

// MultiReporter forwards every event to each of its reporters in order.
type MultiReporter []Reporter

// Report implements Reporter.
func (m MultiReporter) Report(e Event) {
	for _, r := range m {
		r.Report(e)
	}
}

// Close closes every reporter.
func (m MultiReporter) Close() {
	for _, r := range m {
		r.Close()
	}
}
