// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package lastline provides a writer that forwards process output to a sink
// while remembering the most recent complete line.
package lastline

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
)

// Writer tees writes into a sink and tracks the last complete line.
// Once closed, or once the sink reports it is closed, further writes are
// dropped and reported as successful. It is safe for concurrent use.
type Writer struct {
	sink    io.Writer
	onLine  func(string)
	mu      sync.Mutex
	last    string
	partial strings.Builder
	closed  bool
}

// New returns a Writer forwarding to sink. onLine, when not nil, is called
// with every complete line outside the lock.
func New(sink io.Writer, onLine func(string)) *Writer {
	return &Writer{sink: sink, onLine: onLine}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()

	if w.closed {
		w.mu.Unlock()
		return len(p), nil
	}

	if w.sink != nil {
		if _, err := w.sink.Write(p); err != nil {
			if !errors.Is(err, os.ErrClosed) && !errors.Is(err, io.ErrClosedPipe) {
				w.mu.Unlock()
				return 0, err
			}

			w.closed = true
		}
	}

	lines := w.split(string(p))
	w.mu.Unlock()

	if w.onLine != nil {
		for _, l := range lines {
			w.onLine(l)
		}
	}

	return len(p), nil
}

// split must be called with the lock held.
func (w *Writer) split(data string) []string {
	w.partial.WriteString(data)

	parts := strings.Split(w.partial.String(), "\n")
	if len(parts) == 1 {
		return nil
	}

	complete := parts[:len(parts)-1]
	for i, l := range complete {
		complete[i] = strings.TrimSuffix(l, "\r")
	}

	w.last = complete[len(complete)-1]
	w.partial.Reset()
	w.partial.WriteString(parts[len(parts)-1])

	return complete
}

// LastLine returns the last complete line, truncated to maxLength runes with
// a trailing "..." when maxLength > 3.
func (w *Writer) LastLine(maxLength int) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	r := []rune(w.last)
	if maxLength > 3 && len(r) > maxLength {
		return string(r[:maxLength-3]) + "..."
	}

	return w.last
}

// pending returns output received after the last newline.
func (w *Writer) pending() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.partial.String()
}

// Close stops forwarding. It does not close the sink.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true

	return nil
}
