// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package resultstore

import (
	"errors"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/matt-FFFFFF/simbatch/internal/task"
)

// ErrWriteYAML is returned when the YAML export fails.
var ErrWriteYAML = errors.New("failed to write yaml")

// WriteYAML writes docs as a YAML sequence of mappings, keys in document order.
func WriteYAML(w io.Writer, docs []Document) error {
	out := make([]yaml.MapSlice, len(docs))

	for i, d := range docs {
		ms := make(yaml.MapSlice, len(d.Fields))
		for j, f := range d.Fields {
			ms[j] = yaml.MapItem{Key: f.Key, Value: plain(f.Value)}
		}

		out[i] = ms
	}

	b, err := yaml.Marshal(out)
	if err != nil {
		return errors.Join(ErrWriteYAML, err)
	}

	if _, err := w.Write(b); err != nil {
		return errors.Join(ErrWriteYAML, err)
	}

	return nil
}

// plain converts v into strings, floats and nested slices.
func plain(v task.Value) any {
	switch v.Kind {
	case task.KindText:
		return v.Text
	case task.KindList:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			out[i] = plain(e)
		}

		return out
	case task.KindArray:
		return nest(v.Shape, v.Data)
	default:
		return v.Number
	}
}

func nest(shape []int, data []float64) any {
	if len(shape) == 0 {
		if len(data) == 0 {
			return []any{}
		}

		return data[0]
	}

	if len(shape) == 1 {
		out := make([]any, len(data))
		for i, f := range data {
			out[i] = f
		}

		return out
	}

	stride := 1
	for _, n := range shape[1:] {
		stride *= n
	}

	out := make([]any, shape[0])
	for i := range out {
		out[i] = nest(shape[1:], data[i*stride:(i+1)*stride])
	}

	return out
}
