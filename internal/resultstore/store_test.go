// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package resultstore

import (
	"bytes"
	"testing"
	"time"

	"github.com/matt-FFFFFF/simbatch/internal/task"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func processed(t *testing.T) []*task.Task {
	t.Helper()

	ok := task.New(0, task.Folder{Path: "/study/a"}, []string{"load", "run"})
	ok.ProcessTime = 1234567891 * time.Nanosecond
	ok.LogFile = "/study/a/simbatch_1.log"
	ok.Output.Set("Main.x", task.Number(2.5))

	m, err := task.Matrix([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	ok.Output.Set("Main.m", m)
	ok.Output.Set("Main.s", task.List(task.Text("a"), task.Number(1)))
	ok.Output.Warnings = []string{"WARNING: kept"}

	failed := task.New(1, task.Folder{Path: "/study/b", Name: "bee"}, []string{"load"})
	failed.ProcessTime = 3 * time.Second
	failed.AddError("ERROR: broke")

	pending := task.New(2, task.Folder{Path: "/study/c"}, nil)

	return []*task.Task{ok, failed, pending}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	tasks := processed(t)

	require.NoError(t, Save(fs, "results.gob", "abc", tasks, false))

	f, err := Load(fs, "results.gob")
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, f.Version)
	assert.Equal(t, "abc", f.BatchHash)

	got, err := f.Tasks()
	require.NoError(t, err)
	require.Len(t, got, len(tasks))

	for i := range tasks {
		assert.Equal(t, tasks[i].Metadata(), got[i].Metadata(), "task %d", i)
	}

	assert.Equal(t, task.StatusDoneOK, got[0].Status)
	assert.Equal(t, task.StatusDoneError, got[1].Status)
	assert.Equal(t, task.StatusPending, got[2].Status)

	assert.Equal(t, tasks[0].Output.Keys(), got[0].Output.Keys())

	for _, k := range tasks[0].Output.Keys() {
		want, _ := tasks[0].Output.Get(k)
		have, _ := got[0].Output.Get(k)
		assert.True(t, want.Equal(have), k)
	}

	assert.Equal(t, []string{"WARNING: kept"}, got[0].Output.Warnings)
	assert.Equal(t, []string{"ERROR: broke"}, got[1].Output.Errors)
}

func TestSaveAppend(t *testing.T) {
	fs := afero.NewMemMapFs()
	tasks := processed(t)

	require.NoError(t, Save(fs, "r.gob", "h1", tasks[:1], true))
	require.NoError(t, Save(fs, "r.gob", "h2", tasks[1:], true))

	f, err := Load(fs, "r.gob")
	require.NoError(t, err)
	assert.Len(t, f.Documents, 3)
	assert.Equal(t, "h2", f.BatchHash)

	require.NoError(t, Save(fs, "r.gob", "h3", tasks[:1], false))
	f, err = Load(fs, "r.gob")
	require.NoError(t, err)
	assert.Len(t, f.Documents, 1)
}

func TestTasksMissingMetadata(t *testing.T) {
	for _, key := range MetadataKeys {
		t.Run(key, func(t *testing.T) {
			d := FromTask(processed(t)[0])

			var kept []Field

			for _, f := range d.Fields {
				if f.Key != key {
					kept = append(kept, f)
				}
			}

			f := &File{Documents: []Document{FromTask(processed(t)[1]), {Fields: kept}}}
			_, err := f.Tasks()

			require.ErrorIs(t, err, ErrMissingMetadata)

			var mme *MissingMetadataError
			require.ErrorAs(t, err, &mme)
			assert.Equal(t, key, mme.Key)
			assert.Equal(t, 1, mme.Index)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestTaskBadMetadata(t *testing.T) {
	d := FromTask(processed(t)[0])
	d.Fields[1].Value = task.Text("zero")

	_, err := d.Task(0)
	require.ErrorIs(t, err, ErrBadMetadata)

	d = FromTask(processed(t)[0])
	d.Fields[5].Value = task.List(task.Text("changed"))

	_, err = d.Task(0)
	require.ErrorIs(t, err, ErrBadMetadata, "macro no longer matches its hash")
}

func TestLoadErrors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := Load(fs, "missing.gob")
	require.ErrorIs(t, err, ErrReadResults)

	require.NoError(t, afero.WriteFile(fs, "junk.gob", []byte("not gob"), 0o644))
	_, err = Load(fs, "junk.gob")
	require.ErrorIs(t, err, ErrReadResults)
}

func TestWriteYAML(t *testing.T) {
	docs := []Document{FromTask(processed(t)[0]), FromTask(processed(t)[1])}

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, docs))

	out := buf.String()
	assert.Contains(t, out, "task_name: study/a")
	assert.Contains(t, out, "task_name: bee")
	assert.Contains(t, out, "Main.x: 2.5")
	assert.Contains(t, out, "ERROR:")
	assert.Contains(t, out, "ERROR: broke")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("task_macro_hash")), bytes.Index(buf.Bytes(), []byte("Main.x")))
}

func TestNest(t *testing.T) {
	assert.Equal(t, []any{[]any{1.0, 2.0, 3.0}, []any{4.0, 5.0, 6.0}}, nest([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6}))
	assert.Equal(t, []any{1.0}, nest([]int{1}, []float64{1}))
}
