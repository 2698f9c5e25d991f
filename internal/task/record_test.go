// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOrderAndOverwrite(t *testing.T) {
	r := NewRecord()
	r.Set("Main.b", Number(1))
	r.Set("Main.a", Number(2))
	r.Set("Main.b", Number(3))

	assert.Equal(t, []string{"Main.b", "Main.a"}, r.Keys())
	assert.Equal(t, 2, r.Len())

	v, ok := r.Get("Main.b")
	require.True(t, ok)
	assert.Equal(t, 3.0, v.Number)

	_, ok = r.Get("Main.c")
	assert.False(t, ok)
}

func TestRecordHasError(t *testing.T) {
	var nilRecord *Record

	assert.False(t, nilRecord.HasError())
	assert.Equal(t, 0, nilRecord.Len())

	r := NewRecord()
	assert.False(t, r.HasError())

	r.AddError("ERROR(OBJ1): model.any(3): Unknown object")
	assert.True(t, r.HasError())
}

func TestRecordLiteralLookup(t *testing.T) {
	r := &Record{Entries: []Entry{{Key: "x", Value: Number(1)}}}

	v, ok := r.Get("x")
	require.True(t, ok)
	assert.Equal(t, 1.0, v.Number)

	r.Set("y", Number(2))
	assert.Equal(t, []string{"x", "y"}, r.Keys())
}

func TestRecordClone(t *testing.T) {
	r := NewRecord()
	r.Set("v", Vector(1, 2))
	r.AddError("boom")
	r.Meta = &Metadata{Macro: []string{"load"}}

	c := r.Clone()
	c.Entries[0].Value.Data[0] = 99
	c.Errors[0] = "changed"
	c.Meta.Macro[0] = "changed"

	v, _ := r.Get("v")
	assert.Equal(t, 1.0, v.Data[0])
	assert.Equal(t, "boom", r.Errors[0])
	assert.Equal(t, "load", r.Meta.Macro[0])
}
