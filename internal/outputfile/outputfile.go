// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package outputfile reads the CSV output files the simulator writes:
// a header of constants and a column line, followed by rows of numbers.
package outputfile

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/matt-FFFFFF/simbatch/internal/task"
	"github.com/spf13/afero"
)

const maxLineSize = 16 << 20

var (
	// ErrNoNumericData is returned, together with the constants found, when the file has no data rows.
	ErrNoNumericData = errors.New("no numeric data")
	// ErrReadOutputFile is returned when the file cannot be read.
	ErrReadOutputFile = errors.New("failed to read output file")
)

// File is a parsed output file.
type File struct {
	// Constants holds the "Main.x = value" lines of the header.
	// A value that is not a valid literal is kept as text.
	Constants *task.Record
	// Header is the last header line split at commas, nil without a header.
	Header []string
	// Rows of the data table.
	Rows [][]float64
}

// Read parses the output file at path.
func Read(fs afero.Fs, path string) (*File, error) {
	fh, err := fs.Open(path)
	if err != nil {
		return nil, errors.Join(ErrReadOutputFile, err)
	}
	defer fh.Close() //nolint:errcheck

	return Parse(fh)
}

// Parse reads an output file from r.
func Parse(r io.Reader) (*File, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	f := &File{Constants: task.NewRecord()}

	var last string

	inHeader := true

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")

		if inHeader {
			if !numericStart(line) {
				constant(f.Constants, line)
				last = line

				continue
			}

			inHeader = false

			if last != "" {
				f.Header = splitFields(last)
			}
		}

		row, ok := numericRow(line)
		if !ok {
			break
		}

		f.Rows = append(f.Rows, row)
	}

	if err := sc.Err(); err != nil {
		return nil, errors.Join(ErrReadOutputFile, err)
	}

	if len(f.Rows) == 0 {
		return f, ErrNoNumericData
	}

	return f, nil
}

// Shape returns the number of rows and the width of the first row.
func (f *File) Shape() (rows, cols int) {
	if len(f.Rows) == 0 {
		return 0, 0
	}

	return len(f.Rows), len(f.Rows[0])
}

// Column returns the data of the named column.
func (f *File) Column(name string) ([]float64, bool) {
	idx := -1

	for i, h := range f.Header {
		if h == name {
			idx = i
			break
		}
	}

	if idx < 0 {
		return nil, false
	}

	out := make([]float64, 0, len(f.Rows))

	for _, r := range f.Rows {
		if idx >= len(r) {
			return nil, false
		}

		out = append(out, r[idx])
	}

	return out, true
}

func numericStart(line string) bool {
	first, _, _ := strings.Cut(line, ",")
	_, err := strconv.ParseFloat(strings.TrimSpace(first), 64)

	return err == nil
}

func numericRow(line string) ([]float64, bool) {
	fields := strings.Split(line, ",")
	row := make([]float64, len(fields))

	for i, s := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, false
		}

		row[i] = v
	}

	return row, true
}

func splitFields(line string) []string {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	return fields
}

// constant records a "Main.x = value" header line.
func constant(rec *task.Record, line string) {
	if !strings.HasPrefix(line, "Main") || strings.Count(line, "=") != 1 {
		return
	}

	key, lit, _ := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	lit = strings.TrimSuffix(strings.TrimSpace(lit), ";")

	v, err := task.ParseValue(lit)
	if err != nil {
		v = task.Text(lit)
	}

	rec.Set(key, v)
}
