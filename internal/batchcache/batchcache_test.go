// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batchcache

import (
	"context"
	"testing"

	"github.com/matt-FFFFFF/simbatch/internal/task"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNothingToProcess(t *testing.T) {
	_, err := New(afero.NewMemMapFs()).Resolve(context.Background(), Request{})
	require.ErrorIs(t, err, ErrNothingToProcess)
}

func TestResolveNewBatch(t *testing.T) {
	c := New(afero.NewMemMapFs())
	req := Request{
		Macros:  [][]string{{"load a"}, {"load b"}},
		Folders: []task.Folder{{Path: "/study/x"}, {Path: "/study/y", Name: "why"}},
	}

	tasks, err := c.Resolve(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, tasks, 4)

	want := []struct {
		folder, name, macro string
	}{
		{"/study/x", "study/x", "load a"},
		{"/study/x", "study/x", "load b"},
		{"/study/y", "why", "load a"},
		{"/study/y", "why", "load b"},
	}

	for i, w := range want {
		assert.Equal(t, i, tasks[i].ID)
		assert.Equal(t, w.folder, tasks[i].Folder)
		assert.Equal(t, w.name, tasks[i].Name)
		assert.Equal(t, []string{w.macro}, tasks[i].Macro)
	}

	key, err := hashOf(req)
	require.NoError(t, err)
	assert.Equal(t, key, c.Hash())

	resumed, err := c.Resolve(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, tasks, resumed)
}

func TestResolveReusesUnchangedBatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a/notes.txt", nil, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/b/notes.txt", nil, 0o644))

	c := New(fs)
	req := Request{Macros: [][]string{{"load"}}, Folders: []task.Folder{{Path: "/a"}, {Path: "/b"}}}

	first, err := c.Resolve(context.Background(), req)
	require.NoError(t, err)

	first[0].ProcessTime = 5
	c.Update(first)

	again, err := c.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Same(t, first[0], again[0])

	resumed, err := c.Resolve(context.Background(), Request{})
	require.NoError(t, err)
	assert.Same(t, first[0], resumed[0])

	req.SubdirFilter = "*.any"
	changed, err := c.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, changed, "no folder holds a matching file")
	assert.NotEqual(t, first, changed)
}

func TestResolveSeededBatch(t *testing.T) {
	req := Request{Macros: [][]string{{"load"}}, Folders: []task.Folder{{Path: "/a"}}}
	key, err := hashOf(req)
	require.NoError(t, err)

	saved := []*task.Task{task.New(0, task.Folder{Path: "/a"}, []string{"load"})}
	saved[0].ProcessTime = 1

	c := New(afero.NewMemMapFs())
	c.Seed(key, saved)

	got, err := c.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Same(t, saved[0], got[0])
}

func TestResolveDefaultsToWorkingDirectory(t *testing.T) {
	defer gostub.StubFunc(&getwd, "/work/dir", nil).Reset()

	tasks, err := New(afero.NewMemMapFs()).Resolve(context.Background(), Request{Macros: [][]string{{"m"}}})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "/work/dir", tasks[0].Folder)
	assert.Equal(t, "work/dir", tasks[0].Name)
}

func TestResolveExpandsSubdirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/s/r2/main.any", nil, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/s/r1/main.any", nil, 0o644))

	tasks, err := New(fs).Resolve(context.Background(), Request{
		Macros:       [][]string{{"m1"}, {"m2"}},
		Folders:      []task.Folder{{Path: "/s"}},
		SubdirFilter: "main.any",
	})
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	assert.Equal(t, "/s/r1", tasks[0].Folder)
	assert.Equal(t, "/s/r1", tasks[1].Folder)
	assert.Equal(t, "/s/r2", tasks[2].Folder)
	assert.Equal(t, []string{"m2"}, tasks[3].Macro)
}

func TestRequestHashDistinguishesSplits(t *testing.T) {
	a := Request{Macros: [][]string{{"ab", "c"}}}
	b := Request{Macros: [][]string{{"a", "bc"}}}
	c := Request{Macros: [][]string{{"ab"}, {"c"}}}

	assert.NotEqual(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
	assert.Equal(t, a.Hash(), Request{Macros: [][]string{{"ab", "c"}}}.Hash())
}
