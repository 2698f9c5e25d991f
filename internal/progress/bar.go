// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// BarWidth is the number of cells inside the brackets of the text bar.
const BarWidth = 40

// BarReporter redraws a one line text bar on every finished task.
type BarReporter struct {
	w    io.Writer
	mu   sync.Mutex
	last Counts
	seen bool
}

// NewBarReporter returns a bar writing to w.
func NewBarReporter(w io.Writer) *BarReporter {
	return &BarReporter{w: w}
}

// Report implements Reporter.
func (b *BarReporter) Report(e Event) {
	if !e.Type.Finished() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.last, b.seen = e.Counts, true
	fmt.Fprint(b.w, "\r"+RenderBar(e.Counts)) //nolint:errcheck
}

// Close ends the bar line.
func (b *BarReporter) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.seen {
		fmt.Fprintln(b.w) //nolint:errcheck
	}
}

// RenderBar draws c as, for example:
//
//	[******************50%                   ]  5 of 10 complete (1 Error)
func RenderBar(c Counts) string {
	filled, pct := 0, 0
	if c.Total > 0 {
		filled = min(BarWidth, BarWidth*c.Processed/c.Total)
		pct = 100 * c.Processed / c.Total
	}

	bar := []byte("[" + strings.Repeat("*", filled) + strings.Repeat(" ", BarWidth-filled) + "]")
	label := strconv.Itoa(pct) + "%"
	at := len(bar)/2 - len(strconv.Itoa(pct))
	copy(bar[at:], label)

	return string(bar) + "  " + CountsText(c)
}

// CountsText describes c, for example "5 of 10 complete (1 Error)".
func CountsText(c Counts) string {
	s := fmt.Sprintf("%d of %d complete", c.Processed, c.Total)

	switch c.Errored {
	case 0:
	case 1:
		s += " (1 Error)"
	default:
		s += fmt.Sprintf(" (%d Errors)", c.Errored)
	}

	return s
}
