// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package summary formats the per-task and final batch summary.
package summary

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/matt-FFFFFF/simbatch/internal/color"
	"github.com/matt-FFFFFF/simbatch/internal/task"
)

// Options controls what WriteTasks prints.
type Options struct {
	ShowSuccess bool // Include tasks that completed without errors
	ShowErrors  bool // Print the error lines below a failed task
	ShowValues  bool // Print the result values below a task
}

// DefaultOptions prints failed and unfinished tasks with their errors.
func DefaultOptions() Options {
	return Options{ShowErrors: true}
}

// Line returns the one-line summary of t, e.g.
//
//	Failed :3 :    12 sec : study/model : simbatch_x1.log
func Line(t *task.Task) string {
	var sb strings.Builder

	switch {
	case t.HasError():
		sb.WriteString("Failed :")
	case !t.Done():
		sb.WriteString("Not completed :")
	default:
		sb.WriteString("Completed :")
	}

	fmt.Fprintf(&sb, "%d : %5.0f sec : %s : ", t.ID, t.ProcessTime.Seconds(), t.Name)

	if t.LogFile != "" {
		sb.WriteString(filepath.Base(t.LogFile))
	}

	return sb.String()
}

// Colored returns Line(t) coloured by outcome.
func Colored(t *task.Task) string {
	l := Line(t)

	switch {
	case t.HasError():
		return color.Failure(l)
	case !t.Done():
		return color.Warning(l)
	default:
		return color.Success(l)
	}
}

// WriteTasks writes one line per task selected by opts.
func WriteTasks(w io.Writer, tasks []*task.Task, opts Options) error {
	for _, t := range tasks {
		if !opts.ShowSuccess && t.Done() && !t.HasError() {
			continue
		}

		if _, err := fmt.Fprintln(w, Colored(t)); err != nil {
			return err
		}

		if opts.ShowErrors && t.Output != nil {
			for _, e := range t.Output.Errors {
				fmt.Fprintf(w, "  %s %s\n", color.Colorize("➜", color.FgRed), firstLine(e)) // nolint:errcheck
			}
		}

		if opts.ShowValues && t.Output != nil {
			for _, e := range t.Output.Entries {
				fmt.Fprintf(w, "  %s = %s\n", color.Muted(e.Key), e.Value) // nolint:errcheck
			}
		}
	}

	return nil
}

// WriteFinal writes the batch totals. Failed tasks are those that completed with errors,
// unfinished tasks those without a process time.
func WriteFinal(w io.Writer, elapsed time.Duration, tasks []*task.Task) error {
	var failed []*task.Task

	unfinished := 0

	for _, t := range tasks {
		switch {
		case !t.Done():
			unfinished++
		case t.HasError():
			failed = append(failed, t)
		}
	}

	if len(failed) > 0 {
		fmt.Fprintln(w, color.Failure(fmt.Sprintf("Tasks with errors: %d", len(failed)))) // nolint:errcheck

		for _, t := range failed {
			fmt.Fprintln(w, Line(t)) // nolint:errcheck
		}
	}

	if unfinished > 0 {
		fmt.Fprintln(w, color.Warning(fmt.Sprintf("Tasks that did not complete: %d", unfinished))) // nolint:errcheck
	}

	_, err := fmt.Fprintf(w, "Total time: %.1f seconds\n", elapsed.Seconds())

	return err
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if l, _, ok := strings.Cut(s, "\n"); ok {
		return l + " ..."
	}

	return s
}
