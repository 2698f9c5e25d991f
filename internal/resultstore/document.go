// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package resultstore

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/matt-FFFFFF/simbatch/internal/task"
)

// Reserved document keys.
const (
	KeyMacroHash   = "task_macro_hash"
	KeyTaskID      = "task_id"
	KeyWorkDir     = "task_work_dir"
	KeyName        = "task_name"
	KeyProcessTime = "task_processtime"
	KeyMacro       = "task_macro"
	KeyLogFile     = "task_logfile"
	KeyError       = "ERROR"
	KeyWarning     = "WARNING"
)

// MetadataKeys are the keys every document needs to rebuild its task.
var MetadataKeys = []string{KeyMacroHash, KeyTaskID, KeyWorkDir, KeyName, KeyProcessTime, KeyMacro, KeyLogFile}

var (
	// ErrMissingMetadata is returned when a document lacks a reserved key.
	ErrMissingMetadata = errors.New("missing task metadata")
	// ErrBadMetadata is returned when a reserved key holds the wrong kind of value.
	ErrBadMetadata = errors.New("invalid task metadata")
)

// MissingMetadataError names the document and the key that is missing.
type MissingMetadataError struct {
	Index int
	Key   string
}

func (e *MissingMetadataError) Error() string {
	return fmt.Sprintf("%s: document %d has no %q", ErrMissingMetadata, e.Index, e.Key)
}

func (e *MissingMetadataError) Unwrap() error {
	return ErrMissingMetadata
}

// Field is one key of a Document.
type Field struct {
	Key   string
	Value task.Value
}

// Document is the saved form of one task: metadata, results, then errors and warnings.
type Document struct {
	Fields []Field
}

// FromTask projects t into a document.
func FromTask(t *task.Task) Document {
	m := t.Metadata()

	macro := make([]task.Value, len(m.Macro))
	for i, l := range m.Macro {
		macro[i] = task.Text(l)
	}

	d := Document{Fields: []Field{
		{KeyMacroHash, task.Text(m.MacroHash)},
		{KeyTaskID, task.Number(float64(m.TaskID))},
		{KeyWorkDir, task.Text(m.WorkDir)},
		{KeyName, task.Text(m.Name)},
		{KeyProcessTime, task.Number(m.ProcessTime.Seconds())},
		{KeyMacro, task.List(macro...)},
		{KeyLogFile, task.Text(m.LogFile)},
	}}

	if t.Output == nil {
		return d
	}

	for _, e := range t.Output.Entries {
		if slices.Contains(MetadataKeys, e.Key) || e.Key == KeyError || e.Key == KeyWarning {
			continue
		}

		d.Fields = append(d.Fields, Field{e.Key, e.Value})
	}

	if len(t.Output.Errors) > 0 {
		d.Fields = append(d.Fields, Field{KeyError, textList(t.Output.Errors)})
	}

	if len(t.Output.Warnings) > 0 {
		d.Fields = append(d.Fields, Field{KeyWarning, textList(t.Output.Warnings)})
	}

	return d
}

// Get returns the value of key.
func (d Document) Get(key string) (task.Value, bool) {
	for _, f := range d.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}

	return task.Value{}, false
}

// HasError reports whether the document carries errors.
func (d Document) HasError() bool {
	v, ok := d.Get(KeyError)
	return ok && len(v.List) > 0
}

// Task rebuilds the task the document was saved from.
// index only appears in errors.
func (d Document) Task(index int) (*task.Task, error) {
	for _, k := range MetadataKeys {
		if _, ok := d.Get(k); !ok {
			return nil, &MissingMetadataError{Index: index, Key: k}
		}
	}

	var m task.Metadata

	bad := func(key string, want task.Kind) error {
		return fmt.Errorf("%w: document %d: %q is not a %s", ErrBadMetadata, index, key, want)
	}

	for _, f := range d.Fields {
		switch f.Key {
		case KeyMacroHash, KeyWorkDir, KeyName, KeyLogFile:
			if f.Value.Kind != task.KindText {
				return nil, bad(f.Key, task.KindText)
			}
		case KeyTaskID, KeyProcessTime:
			if f.Value.Kind != task.KindNumber {
				return nil, bad(f.Key, task.KindNumber)
			}
		}

		switch f.Key {
		case KeyMacroHash:
			m.MacroHash = f.Value.Text
		case KeyTaskID:
			m.TaskID = int(f.Value.Number)
		case KeyWorkDir:
			m.WorkDir = f.Value.Text
		case KeyName:
			m.Name = f.Value.Text
		case KeyProcessTime:
			m.ProcessTime = time.Duration(math.Round(f.Value.Number * float64(time.Second)))
		case KeyLogFile:
			m.LogFile = f.Value.Text
		case KeyMacro:
			lines, ok := texts(f.Value)
			if !ok {
				return nil, bad(f.Key, task.KindList)
			}

			m.Macro = lines
		}
	}

	t := task.FromMetadata(m, d.Record())
	if t.ContentHash() != m.MacroHash {
		return nil, fmt.Errorf("%w: document %d: macro hash does not match task", ErrBadMetadata, index)
	}

	return t, nil
}

// Record returns the results of the document without its metadata.
func (d Document) Record() *task.Record {
	r := task.NewRecord()

	for _, f := range d.Fields {
		switch {
		case f.Key == KeyError:
			r.Errors, _ = texts(f.Value)
		case f.Key == KeyWarning:
			r.Warnings, _ = texts(f.Value)
		case slices.Contains(MetadataKeys, f.Key):
		default:
			r.Set(f.Key, f.Value)
		}
	}

	return r
}

func textList(ss []string) task.Value {
	vs := make([]task.Value, len(ss))
	for i, s := range ss {
		vs[i] = task.Text(s)
	}

	return task.List(vs...)
}

func texts(v task.Value) ([]string, bool) {
	if v.Kind != task.KindList {
		return nil, false
	}

	if len(v.List) == 0 {
		return nil, true
	}

	out := make([]string, len(v.List))

	for i, e := range v.List {
		if e.Kind != task.KindText {
			return nil, false
		}

		out[i] = e.Text
	}

	return out, true
}
