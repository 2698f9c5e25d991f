// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package folders expands batch folders into the subdirectories that hold matching files.
package folders

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/matt-FFFFFF/simbatch/internal/task"
	"github.com/spf13/afero"
)

// ErrBadPattern is returned for a pattern doublestar cannot parse.
var ErrBadPattern = errors.New("invalid subdirectory filter")

// Expand returns, for every root in order, the directories below it that contain a file
// matching pattern. The pattern is matched against the root-relative slash path of the file
// and against its base name. An empty pattern returns roots unchanged.
func Expand(ctx context.Context, fs afero.Fs, roots []task.Folder, pattern string) ([]task.Folder, error) {
	if pattern == "" {
		return roots, nil
	}

	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.Join(ErrBadPattern, doublestar.ErrBadPattern)
	}

	var out []task.Folder

	for _, root := range roots {
		found, err := expandOne(ctx, fs, root, pattern)
		if err != nil {
			return nil, err
		}

		out = append(out, found...)
	}

	return out, nil
}

func expandOne(ctx context.Context, fs afero.Fs, root task.Folder, pattern string) ([]task.Folder, error) {
	dirs := make(map[string]struct{})

	err := afero.Walk(fs, root.Path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root.Path, p)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)

		if doublestar.MatchUnvalidated(pattern, rel) || doublestar.MatchUnvalidated(pattern, path.Base(rel)) {
			dirs[filepath.Dir(p)] = struct{}{}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sorted := make([]string, 0, len(dirs))
	for d := range dirs {
		sorted = append(sorted, d)
	}

	sort.Strings(sorted)

	out := make([]task.Folder, len(sorted))

	for i, d := range sorted {
		out[i] = task.Folder{Path: d}

		if root.Name == "" {
			continue
		}

		rel, _ := filepath.Rel(root.Path, d)
		if rel == "." {
			out[i].Name = root.Name
			continue
		}

		out[i].Name = root.Name + "/" + filepath.ToSlash(rel)
	}

	return out, nil
}
