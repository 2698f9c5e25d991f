// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package task

import (
	"path/filepath"
	"slices"
	"time"
)

// ExitCommand terminates every macro.
const ExitCommand = "exit"

// Status is the scheduling state of a task.
type Status uint8

// Task states. Every dispatched task ends in one of the Done states.
const (
	StatusPending Status = iota
	StatusRunning
	StatusDoneOK
	StatusDoneError
	StatusDoneTimeout
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusDoneOK:
		return "ok"
	case StatusDoneError:
		return "error"
	case StatusDoneTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is one of the Done states.
func (s Status) Terminal() bool {
	return s >= StatusDoneOK
}

// Folder is a working directory with an optional display name.
type Folder struct {
	Path string `yaml:"path" hcl:"path"`
	Name string `yaml:"name,omitempty" hcl:"name,optional"`
}

// Task is one macro bound to one working directory.
type Task struct {
	ID          int
	Folder      string
	Macro       []string
	Name        string
	Output      *Record
	ProcessTime time.Duration
	LogFile     string
	Status      Status
	Attempts    int
}

// New returns a pending task. An empty folder name is derived from the path.
func New(id int, folder Folder, macro []string) *Task {
	name := folder.Name
	if name == "" {
		name = DefaultName(folder.Path)
	}

	return &Task{
		ID:     id,
		Folder: filepath.Clean(folder.Path),
		Macro:  slices.Clone(macro),
		Name:   name,
		Output: NewRecord(),
	}
}

// DefaultName returns "<parent>/<dir>" for a directory path.
func DefaultName(dir string) string {
	dir = filepath.Clean(dir)
	parent := filepath.Base(filepath.Dir(dir))

	return parent + "/" + filepath.Base(dir)
}

// FromMacroFolders builds one task per folder and macro.
// Folders form the outer loop, so all macros of the first folder come first.
func FromMacroFolders(macros [][]string, folders []Folder) []*Task {
	tasks := make([]*Task, 0, len(macros)*len(folders))

	for _, f := range folders {
		for _, m := range macros {
			tasks = append(tasks, New(len(tasks), f, m))
		}
	}

	return tasks
}

// Done reports whether the task has a measured result.
func (t *Task) Done() bool {
	return t.ProcessTime > 0
}

// HasError reports whether the task output holds errors.
func (t *Task) HasError() bool {
	return t.Output.HasError()
}

// AddError records msg on the task output.
func (t *Task) AddError(msg string) {
	if t.Output == nil {
		t.Output = NewRecord()
	}

	t.Output.AddError(msg)
}

// MacroWithExit returns the macro lines, ending with the exit command.
func (t *Task) MacroWithExit() []string {
	m := slices.Clone(t.Macro)
	if len(m) == 0 || m[len(m)-1] != ExitCommand {
		m = append(m, ExitCommand)
	}

	return m
}

// ContentHash identifies the task by its id and macro.
func (t *Task) ContentHash() string {
	return NewHasher().Int(t.ID).Strings(t.Macro).Sum()
}

// Metadata returns the provenance fields of the task.
func (t *Task) Metadata() Metadata {
	return Metadata{
		MacroHash:   t.ContentHash(),
		TaskID:      t.ID,
		WorkDir:     t.Folder,
		Name:        t.Name,
		ProcessTime: t.ProcessTime,
		Macro:       slices.Clone(t.Macro),
		LogFile:     t.LogFile,
	}
}

// Result returns a copy of the output record, with metadata attached if requested.
func (t *Task) Result(includeMeta bool) *Record {
	r := t.Output.Clone()
	if r == nil {
		r = NewRecord()
	}

	r.Meta = nil

	if includeMeta {
		m := t.Metadata()
		r.Meta = &m
	}

	return r
}

// FromMetadata rebuilds a task from saved metadata and its output record.
func FromMetadata(m Metadata, out *Record) *Task {
	if out == nil {
		out = NewRecord()
	}

	out = out.Clone()
	out.Meta = nil

	t := &Task{
		ID:          m.TaskID,
		Folder:      m.WorkDir,
		Macro:       slices.Clone(m.Macro),
		Name:        m.Name,
		Output:      out,
		ProcessTime: m.ProcessTime,
		LogFile:     m.LogFile,
	}

	switch {
	case !t.Done():
		t.Status = StatusPending
	case t.HasError():
		t.Status = StatusDoneError
	default:
		t.Status = StatusDoneOK
	}

	return t
}
