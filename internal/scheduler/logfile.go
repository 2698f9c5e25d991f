// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package scheduler

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/matt-FFFFFF/simbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/simbatch/internal/task"
)

const (
	macroHeader  = "########### MACRO #############"
	outputHeader = "######### OUTPUT LOG ##########"
)

// ErrCreateLogFile is recorded when the log file cannot be created in the task folder.
var ErrCreateLogFile = errors.New("could not create log file")

// logFile is a task log: the macro, a separator, then everything the simulator printed.
type logFile struct {
	*os.File
	headerLen int64
}

func createLogFile(dir, prefix string, macro []string) (*logFile, error) {
	f, err := os.CreateTemp(dir, prefix+"*.log")
	if err != nil {
		return nil, errors.Join(ErrCreateLogFile, err)
	}

	header := macroHeader + "\n" + strings.Join(macro, "\n") + "\n\n" + outputHeader + "\n"

	n, err := f.WriteString(header)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())

		return nil, errors.Join(ErrCreateLogFile, err)
	}

	return &logFile{File: f, headerLen: int64(n)}, nil
}

// rewind drops the output of a previous attempt.
func (l *logFile) rewind() error {
	if err := l.Truncate(l.headerLen); err != nil {
		return err
	}

	_, err := l.Seek(l.headerLen, io.SeekStart)

	return err
}

// output returns what the simulator printed.
func (l *logFile) output() (string, error) {
	b, err := os.ReadFile(l.Name())
	if err != nil {
		return "", err
	}

	return outputSection(string(b)), nil
}

// outputSection strips the macro header from the content of a log file.
func outputSection(raw string) string {
	if _, after, ok := strings.Cut(raw, outputHeader+"\n"); ok {
		return after
	}

	return raw
}

func macroFileFor(logPath string) string {
	return strings.TrimSuffix(logPath, ".log") + ".mcr"
}

// cleanupLogFiles removes the logs of successful tasks unless keep is set,
// and always those of tasks without a result.
func cleanupLogFiles(ctx context.Context, tasks []*task.Task, keep bool) {
	for _, t := range tasks {
		if t.LogFile == "" {
			continue
		}

		success := t.Done() && !t.HasError()
		if (success && keep) || (t.Done() && !success) {
			continue
		}

		if err := os.Remove(t.LogFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			ctxlog.Warn(ctx, "could not remove log file", "path", t.LogFile, "error", err)
			continue
		}

		t.LogFile = ""
	}
}
