// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package task

import (
	"slices"
	"time"
)

// Entry is one key of a Record.
type Entry struct {
	Key   string
	Value Value
}

// Metadata identifies the task a Record came from.
type Metadata struct {
	MacroHash   string
	TaskID      int
	WorkDir     string
	Name        string
	ProcessTime time.Duration
	Macro       []string
	LogFile     string
}

// Record is the parsed output of one task.
// Entries keep insertion order. Errors is the only success discriminant.
type Record struct {
	Entries  []Entry
	Errors   []string
	Warnings []string
	Meta     *Metadata

	index map[string]int
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{}
}

// Set stores v under key. An existing key keeps its position.
func (r *Record) Set(key string, v Value) {
	if i, ok := r.lookup(key); ok {
		r.Entries[i].Value = v
		return
	}

	r.Entries = append(r.Entries, Entry{Key: key, Value: v})
	r.index[key] = len(r.Entries) - 1
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}

	i, ok := r.lookup(key)
	if !ok {
		return Value{}, false
	}

	return r.Entries[i].Value, true
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}

	keys := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		keys[i] = e.Key
	}

	return keys
}

// Len returns the number of entries.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}

	return len(r.Entries)
}

// HasError reports whether any error was recorded.
func (r *Record) HasError() bool {
	return r != nil && len(r.Errors) > 0
}

// AddError appends msg to the error list.
func (r *Record) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	c := &Record{
		Entries:  make([]Entry, len(r.Entries)),
		Errors:   slices.Clone(r.Errors),
		Warnings: slices.Clone(r.Warnings),
	}

	for i, e := range r.Entries {
		c.Entries[i] = Entry{Key: e.Key, Value: cloneValue(e.Value)}
	}

	if r.Meta != nil {
		m := *r.Meta
		m.Macro = slices.Clone(r.Meta.Macro)
		c.Meta = &m
	}

	return c
}

func cloneValue(v Value) Value {
	v.Shape = slices.Clone(v.Shape)
	v.Data = slices.Clone(v.Data)

	if v.List != nil {
		l := make([]Value, len(v.List))
		for i, e := range v.List {
			l[i] = cloneValue(e)
		}

		v.List = l
	}

	return v
}

// lookup rebuilds the index when the record was decoded or built as a literal.
func (r *Record) lookup(key string) (int, bool) {
	if r.index == nil || len(r.index) != len(r.Entries) {
		r.index = make(map[string]int, len(r.Entries))
		for i, e := range r.Entries {
			r.index[e.Key] = i
		}
	}

	i, ok := r.index[key]

	return i, ok
}
