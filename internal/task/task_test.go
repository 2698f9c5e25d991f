// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package task

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDerivesName(t *testing.T) {
	tk := New(3, Folder{Path: filepath.Join("studies", "knee", "trial1")}, []string{"load"})
	assert.Equal(t, "knee/trial1", tk.Name)
	assert.Equal(t, StatusPending, tk.Status)
	assert.False(t, tk.Done())

	named := New(0, Folder{Path: "x", Name: "custom"}, nil)
	assert.Equal(t, "custom", named.Name)
}

func TestFromMacroFoldersOrdering(t *testing.T) {
	macros := [][]string{{"m0"}, {"m1"}}
	folders := []Folder{{Path: "/a/f0"}, {Path: "/a/f1"}, {Path: "/a/f2"}}

	tasks := FromMacroFolders(macros, folders)
	require.Len(t, tasks, 6)

	for i, tk := range tasks {
		assert.Equal(t, i, tk.ID)
		assert.Equal(t, folders[i/2].Path, tk.Folder)
		assert.Equal(t, macros[i%2], tk.Macro)
	}
}

func TestMacroWithExit(t *testing.T) {
	assert.Equal(t, []string{"load", "exit"}, (&Task{Macro: []string{"load"}}).MacroWithExit())
	assert.Equal(t, []string{"load", "exit"}, (&Task{Macro: []string{"load", "exit"}}).MacroWithExit())
	assert.Equal(t, []string{"exit"}, (&Task{}).MacroWithExit())
}

func TestContentHash(t *testing.T) {
	a := &Task{ID: 1, Macro: []string{"ab", "c"}}
	b := &Task{ID: 1, Macro: []string{"a", "bc"}}
	c := &Task{ID: 2, Macro: []string{"ab", "c"}}

	assert.Len(t, a.ContentHash(), 64)
	assert.Equal(t, a.ContentHash(), (&Task{ID: 1, Macro: []string{"ab", "c"}}).ContentHash())
	assert.NotEqual(t, a.ContentHash(), b.ContentHash())
	assert.NotEqual(t, a.ContentHash(), c.ContentHash())
}

func TestResultAndFromMetadata(t *testing.T) {
	tk := New(5, Folder{Path: "/data/s1/run"}, []string{"load", "run"})
	tk.ProcessTime = 1500 * time.Millisecond
	tk.LogFile = "/data/s1/run/ab12_x.log"
	tk.Output.Set("Main.out", Number(7))

	plain := tk.Result(false)
	assert.Nil(t, plain.Meta)

	withMeta := tk.Result(true)
	require.NotNil(t, withMeta.Meta)
	assert.Equal(t, tk.Metadata(), *withMeta.Meta)

	back := FromMetadata(*withMeta.Meta, withMeta)
	assert.Equal(t, tk.Metadata(), back.Metadata())
	assert.Equal(t, StatusDoneOK, back.Status)
	assert.Nil(t, back.Output.Meta)

	v, ok := back.Output.Get("Main.out")
	require.True(t, ok)
	assert.Equal(t, 7.0, v.Number)
}

func TestFromMetadataStatus(t *testing.T) {
	pending := FromMetadata(Metadata{TaskID: 1}, nil)
	assert.Equal(t, StatusPending, pending.Status)

	failed := NewRecord()
	failed.AddError("ERROR: boom")
	assert.Equal(t, StatusDoneError, FromMetadata(Metadata{ProcessTime: time.Second}, failed).Status)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusDoneOK.Terminal())
	assert.True(t, StatusDoneError.Terminal())
	assert.True(t, StatusDoneTimeout.Terminal())
	assert.Equal(t, "timeout", StatusDoneTimeout.String())
}
