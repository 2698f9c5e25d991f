// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/matt-FFFFFF/simbatch/internal/collector"
	"github.com/matt-FFFFFF/simbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/simbatch/internal/progress"
	"github.com/matt-FFFFFF/simbatch/internal/runner"
	"github.com/matt-FFFFFF/simbatch/internal/task"
	"github.com/sethvargo/go-retry"
)

var (
	// ErrFolderNotFound is recorded when a task folder does not exist.
	ErrFolderNotFound = errors.New("could not find folder")
	// ErrWorkerPanic is recorded when a worker panicked.
	ErrWorkerPanic = errors.New("worker panicked")
)

// result is what a worker hands back to the dispatch loop.
// Exactly one of failure or outcome describes the run. A cancelled result
// never started a process and leaves the task untouched.
type result struct {
	index     int
	cancelled bool
	failure   error
	outcome  runner.Outcome
	output   *task.Record
	elapsed  time.Duration
	logFile  string
	attempts int
}

// apply moves the result into t.
func (r result) apply(t *task.Task) {
	if r.cancelled {
		if t.Status == task.StatusRunning {
			t.Status = task.StatusPending
		}

		return
	}

	t.Attempts += r.attempts

	if r.logFile != "" {
		if t.LogFile != "" && t.LogFile != r.logFile {
			_ = os.Remove(t.LogFile)
		}

		t.LogFile = r.logFile
	}

	switch {
	case r.failure != nil:
		t.Output = task.NewRecord()
		t.AddError(r.failure.Error())
		t.ProcessTime = 0
		t.Status = task.StatusDoneError
	case r.outcome.Class.Transient():
		// Left without a process time so a resumed batch runs it again.
		t.Output = task.NewRecord()
		t.AddError(fmt.Sprintf("Error: Non zero return code: %d", r.outcome.ExitCode))
		t.ProcessTime = 0
		t.Status = task.StatusDoneError
	default:
		t.Output = r.output
		t.ProcessTime = r.elapsed

		switch {
		case r.outcome.Class == runner.ExitTimeout:
			t.Status = task.StatusDoneTimeout
		case t.HasError():
			t.Status = task.StatusDoneError
		default:
			t.Status = task.StatusDoneOK
		}
	}
}

// execute runs one task. It never panics and never touches t.
func (s *Scheduler) execute(ctx context.Context, index int, t *task.Task) (res result) {
	res.index = index

	defer func() {
		if r := recover(); r != nil {
			res.failure = fmt.Errorf("%w: %v", ErrWorkerPanic, r)
		}
	}()

	if s.stopRequested(ctx) {
		res.cancelled = true
		return res
	}

	ctx = ctxlog.With(ctx, "task_id", t.ID, "name", t.Name)

	if fi, err := os.Stat(t.Folder); err != nil || !fi.IsDir() {
		res.failure = fmt.Errorf("%w: %s", ErrFolderNotFound, t.Folder)
		return res
	}

	lf, err := createLogFile(t.Folder, s.cfg.LogFilePrefix, t.MacroWithExit())
	if err != nil {
		res.failure = err
		return res
	}
	defer lf.Close() //nolint:errcheck

	res.logFile = lf.Name()

	s.reporter.Report(progress.Event{Type: progress.EventStarted, TaskID: t.ID, TaskName: t.Name, Timestamp: time.Now()})

	inv := runner.Invocation{
		Macro:     t.Macro,
		WorkDir:   t.Folder,
		MacroFile: macroFileFor(lf.Name()),
		Output:    lf,
		Registry:  s.registry,
		OnLine: func(line string) {
			s.reporter.Report(progress.Event{Type: progress.EventOutput, TaskID: t.ID, TaskName: t.Name, Line: line})
		},
	}

	start := time.Now()

	backoff := retry.WithMaxRetries(uint64(max(s.cfg.LicenseRetries, 0)), retry.NewExponential(max(s.cfg.LicenseRetryDelay, time.Millisecond)))

	// The backoff sleep ends as soon as the batch is interrupted.
	retryCtx, stopRetry := context.WithCancel(ctx)
	defer stopRetry()

	go func(stopped <-chan struct{}) {
		select {
		case <-stopped:
			stopRetry()
		case <-retryCtx.Done():
		}
	}(s.registry.Stopped())

	_ = retry.Do(retryCtx, backoff, func(context.Context) error {
		if res.attempts > 0 {
			if s.stopRequested(ctx) {
				return nil
			}

			if err := lf.rewind(); err != nil {
				return err
			}

			ctxlog.Info(ctx, "retrying task without licence", "attempt", res.attempts+1)
		}

		s.countSpawn()

		res.attempts++
		res.outcome = s.runner.Run(ctx, inv)

		if res.outcome.Class == runner.ExitNoLicense && !s.stopRequested(ctx) {
			return retry.RetryableError(errNoLicense)
		}

		return nil
	})

	if res.attempts == 0 {
		_ = lf.Close()
		_ = os.Remove(lf.Name())
		res.cancelled, res.logFile = true, ""

		return res
	}

	// Some clocks are too coarse to see a very short run.
	res.elapsed = max(time.Since(start), time.Microsecond)

	if res.outcome.Err != nil {
		res.failure = res.outcome.Err
		return res
	}

	raw, err := lf.output()
	if err != nil {
		res.failure = err
		return res
	}

	res.output = collector.Parse(raw, s.cfg.Collector)

	return res
}

var errNoLicense = errors.New("no licence available")
