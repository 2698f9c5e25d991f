// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package resultstore saves processed task lists and rebuilds them for a resumed batch.
package resultstore

import (
	"bytes"
	"encoding/gob"
	"errors"
	"os"

	"github.com/matt-FFFFFF/simbatch/internal/task"
	"github.com/spf13/afero"
)

// FormatVersion is written into every results file.
const FormatVersion = 1

var (
	// ErrWriteResults is returned when the results file cannot be written.
	ErrWriteResults = errors.New("failed to write results file")
	// ErrReadResults is returned when the results file cannot be read or decoded.
	ErrReadResults = errors.New("failed to read results file")
	// ErrUnsupportedVersion is returned for a results file written by a newer version.
	ErrUnsupportedVersion = errors.New("unsupported results file version")
)

// File is the content of a results file.
type File struct {
	Version int
	// BatchHash identifies the arguments the batch was built from.
	BatchHash string
	Documents []Document
}

// Tasks rebuilds the saved tasks in document order.
func (f *File) Tasks() ([]*task.Task, error) {
	tasks := make([]*task.Task, len(f.Documents))

	for i, d := range f.Documents {
		t, err := d.Task(i)
		if err != nil {
			return nil, err
		}

		tasks[i] = t
	}

	return tasks, nil
}

// Save writes tasks to path. With appendTo set the documents are added to those already in the file.
func Save(fs afero.Fs, path, batchHash string, tasks []*task.Task, appendTo bool) error {
	f := &File{Version: FormatVersion, BatchHash: batchHash}

	if appendTo {
		prev, err := Load(fs, path)

		switch {
		case err == nil:
			f.Documents = prev.Documents
		case errors.Is(err, os.ErrNotExist):
		default:
			return err
		}
	}

	for _, t := range tasks {
		f.Documents = append(f.Documents, FromTask(t))
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(f); err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	return nil
}

// Load reads a results file.
func Load(fs afero.Fs, path string) (*File, error) {
	fh, err := fs.Open(path)
	if err != nil {
		return nil, errors.Join(ErrReadResults, err)
	}
	defer fh.Close() //nolint:errcheck

	var f File
	if err := gob.NewDecoder(fh).Decode(&f); err != nil {
		return nil, errors.Join(ErrReadResults, err)
	}

	if f.Version > FormatVersion {
		return nil, ErrUnsupportedVersion
	}

	return &f, nil
}
