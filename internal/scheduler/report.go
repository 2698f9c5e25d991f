// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package scheduler

import (
	"time"

	"github.com/matt-FFFFFF/simbatch/internal/task"
)

// Report is the outcome of one Schedule call.
type Report struct {
	Elapsed time.Duration
	// Tasks in input order.
	Tasks []*task.Task
	// Errors counts tasks whose record holds errors.
	Errors int
	// Unfinished counts tasks without a process time.
	Unfinished  int
	Interrupted bool
}

func newReport(elapsed time.Duration, tasks []*task.Task, interrupted bool) Report {
	r := Report{Elapsed: elapsed, Tasks: tasks, Interrupted: interrupted}

	for _, t := range tasks {
		if t.HasError() {
			r.Errors++
		}

		if !t.Done() {
			r.Unfinished++
		}
	}

	return r
}

// Failed returns the tasks with errors.
func (r Report) Failed() []*task.Task {
	return r.filter(func(t *task.Task) bool { return t.HasError() })
}

// NotCompleted returns the tasks without a process time.
func (r Report) NotCompleted() []*task.Task {
	return r.filter(func(t *task.Task) bool { return !t.Done() })
}

// Succeeded reports whether every task completed without errors.
func (r Report) Succeeded() bool {
	return r.Errors == 0 && r.Unfinished == 0
}

// Records returns the result record of every task.
func (r Report) Records(includeMeta bool) []*task.Record {
	out := make([]*task.Record, len(r.Tasks))
	for i, t := range r.Tasks {
		out[i] = t.Result(includeMeta)
	}

	return out
}

func (r Report) filter(keep func(*task.Task) bool) []*task.Task {
	var out []*task.Task

	for _, t := range r.Tasks {
		if keep(t) {
			out = append(out, t)
		}
	}

	return out
}
