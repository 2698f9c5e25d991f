// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package batchcache decides whether an invocation resumes the previous batch or starts a new one.
package batchcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/matt-FFFFFF/simbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/simbatch/internal/folders"
	"github.com/matt-FFFFFF/simbatch/internal/task"
	"github.com/spf13/afero"
)

// ErrNothingToProcess is returned when no macros are given and there is no previous batch.
var ErrNothingToProcess = errors.New("no macros given and no previous batch to resume")

// getwd is replaced in tests.
var getwd = os.Getwd

// Request is the argument triple of one invocation.
type Request struct {
	Macros       [][]string
	Folders      []task.Folder
	SubdirFilter string
}

// Hash identifies the request. Folder paths are hashed as given,
// so callers should normalise them first.
func (r Request) Hash() string {
	h := task.NewHasher().Int(len(r.Macros))
	for _, m := range r.Macros {
		h.Strings(m)
	}

	h.Int(len(r.Folders))

	for _, f := range r.Folders {
		h.String(f.Path).String(f.Name)
	}

	return h.String(r.SubdirFilter).Sum()
}

// Cache remembers the last batch. It is safe for concurrent use.
type Cache struct {
	fs afero.Fs

	mu    sync.Mutex
	hash  string
	tasks []*task.Task
}

// New returns an empty cache that expands folders on fs.
func New(fs afero.Fs) *Cache {
	return &Cache{fs: fs}
}

// Seed installs a previous batch, typically loaded from a results file.
func (c *Cache) Seed(hash string, tasks []*task.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hash, c.tasks = hash, tasks
}

// Update stores the processed task list of the current batch.
func (c *Cache) Update(tasks []*task.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tasks = tasks
}

// Hash returns the hash of the cached batch.
func (c *Cache) Hash() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.hash
}

// Resolve returns the task list for req.
// Without macros the previous batch is resumed. With the same arguments as the previous batch
// its partially processed list is returned. Anything else builds a new batch.
func (c *Cache) Resolve(ctx context.Context, req Request) ([]*task.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(req.Macros) == 0 {
		if len(c.tasks) == 0 {
			return nil, ErrNothingToProcess
		}

		ctxlog.Info(ctx, "resuming previous batch", "tasks", len(c.tasks))

		return c.tasks, nil
	}

	req, err := normalise(req)
	if err != nil {
		return nil, err
	}

	hash := req.Hash()
	if hash == c.hash && len(c.tasks) > 0 {
		ctxlog.Info(ctx, "arguments unchanged, reusing previous batch", "tasks", len(c.tasks))
		return c.tasks, nil
	}

	dirs, err := folders.Expand(ctx, c.fs, req.Folders, req.SubdirFilter)
	if err != nil {
		return nil, err
	}

	c.hash = hash
	c.tasks = task.FromMacroFolders(req.Macros, dirs)

	ctxlog.Debug(ctx, "new batch", "hash", hash, "folders", len(dirs), "tasks", len(c.tasks))

	return c.tasks, nil
}

// hashOf returns the hash Resolve would use for req.
func hashOf(req Request) (string, error) {
	req, err := normalise(req)
	if err != nil {
		return "", err
	}

	return req.Hash(), nil
}

// normalise makes folder paths absolute. No folders means the working directory.
func normalise(req Request) (Request, error) {
	if len(req.Folders) == 0 {
		wd, err := getwd()
		if err != nil {
			return req, err
		}

		req.Folders = []task.Folder{{Path: wd}}

		return req, nil
	}

	out := make([]task.Folder, len(req.Folders))

	for i, f := range req.Folders {
		abs, err := filepath.Abs(f.Path)
		if err != nil {
			return req, err
		}

		out[i] = task.Folder{Path: abs, Name: f.Name}
	}

	req.Folders = out

	return req, nil
}
