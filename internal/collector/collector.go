// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package collector turns raw simulator console output into a task.Record.
//
// The output is read section by section, one section per echoed macro command.
// Lines starting with ERROR or WARNING (optionally followed by an id in parentheses
// and a colon) open an entry, and indented lines that follow belong to it.
// Lines of the form "Main.path = literal;" carry dumped values.
package collector

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matt-FFFFFF/simbatch/internal/task"
)

var (
	sectionRe = regexp.MustCompile(`^#{2,}\s*Macro command`)
	errorRe   = regexp.MustCompile(`^(?:ERROR|Error)(?:\([^)]*\))?\s*:`)
	warningRe = regexp.MustCompile(`^(?:WARNING|Warning)(?:\([^)]*\))?\s*:`)
	dumpRe    = regexp.MustCompile(`^(Main(?:\.[A-Za-z0-9_\[\]]+)*)\s*=\s*(.*)$`)
)

// Options filter what ends up in the record.
type Options struct {
	// IgnoreErrors drops every error containing one of these substrings.
	IgnoreErrors []string
	// IncludeWarnings keeps warnings containing one of these substrings. Others are discarded.
	IncludeWarnings []string
}

// Parse reads raw output into a new record.
// A malformed value only adds an error for that key.
func Parse(raw string, opts Options) *task.Record {
	rec := task.NewRecord()

	for _, sec := range Sections(raw) {
		parseSection(sec, rec, opts)
	}

	return rec
}

// Sections splits raw output at every echoed macro command.
// Text before the first command is returned as the first section when not blank.
func Sections(raw string) [][]string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	var (
		secs [][]string
		cur  []string
	)

	for _, l := range lines {
		if sectionRe.MatchString(l) && len(cur) > 0 {
			secs = append(secs, cur)
			cur = nil
		}

		cur = append(cur, l)
	}

	if strings.TrimSpace(strings.Join(cur, "")) != "" {
		secs = append(secs, cur)
	}

	return secs
}

func parseSection(lines []string, rec *task.Record, opts Options) {
	for i := 0; i < len(lines); i++ {
		line := lines[i]

		switch {
		case errorRe.MatchString(line):
			entry, next := withContinuation(lines, i)
			i = next - 1

			if !containsAny(entry, opts.IgnoreErrors) {
				rec.AddError(entry)
			}
		case warningRe.MatchString(line):
			entry, next := withContinuation(lines, i)
			i = next - 1

			if containsAny(entry, opts.IncludeWarnings) {
				rec.Warnings = append(rec.Warnings, entry)
			}
		case dumpRe.MatchString(line):
			m := dumpRe.FindStringSubmatch(line)
			key := m[1]

			lit, next, ok := untilSemicolon(lines, i, m[2])
			i = next - 1

			if !ok {
				rec.AddError(fmt.Sprintf("Could not parse value of %s: missing terminating ';'", key))
				continue
			}

			v, err := task.ParseValue(lit)
			if err != nil {
				rec.AddError(fmt.Sprintf("Could not parse value of %s: %v", key, err))
				continue
			}

			rec.Set(key, v)
		}
	}
}

// withContinuation returns the entry starting at lines[i] joined with its indented
// continuation lines, and the index of the first line after it.
func withContinuation(lines []string, i int) (string, int) {
	entry := []string{strings.TrimRight(lines[i], " \t")}

	j := i + 1
	for ; j < len(lines); j++ {
		l := lines[j]
		if strings.TrimSpace(l) == "" || (l[0] != ' ' && l[0] != '\t') {
			break
		}

		entry = append(entry, strings.TrimSpace(l))
	}

	return strings.Join(entry, "\n"), j
}

// untilSemicolon collects a literal that may span several lines.
func untilSemicolon(lines []string, i int, first string) (string, int, bool) {
	var sb strings.Builder

	part := strings.TrimSpace(first)

	for j := i; ; {
		if lit, ok := strings.CutSuffix(part, ";"); ok {
			sb.WriteString(lit)
			return sb.String(), j + 1, true
		}

		sb.WriteString(part)
		sb.WriteByte(' ')

		j++
		if j >= len(lines) || sectionRe.MatchString(lines[j]) {
			return "", j, false
		}

		part = strings.TrimSpace(lines[j])
	}
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(s, p) {
			return true
		}
	}

	return false
}
