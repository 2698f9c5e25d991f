// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"

	"github.com/matt-FFFFFF/simbatch/internal/ctxlog"
)

// LogReporter writes one structured log line per lifecycle event.
type LogReporter struct {
	ctx context.Context //nolint:containedctx
}

// NewLogReporter logs through the logger carried by ctx.
func NewLogReporter(ctx context.Context) *LogReporter {
	return &LogReporter{ctx: ctx}
}

// Report implements Reporter.
func (l *LogReporter) Report(e Event) {
	args := []any{
		"task_id", e.TaskID,
		"name", e.TaskName,
		"processed", e.Counts.Processed,
		"errored", e.Counts.Errored,
		"total", e.Counts.Total,
	}

	switch e.Type {
	case EventStarted:
		ctxlog.Debug(l.ctx, "task started", "task_id", e.TaskID, "name", e.TaskName)
	case EventCompleted:
		ctxlog.Info(l.ctx, "task completed", append(args, "elapsed", e.Elapsed)...)
	case EventSkipped:
		ctxlog.Info(l.ctx, "task already completed", args...)
	case EventFailed:
		ctxlog.Warn(l.ctx, "task failed", append(args, "error", e.Message)...)
	case EventInterrupted:
		ctxlog.Warn(l.ctx, "batch interrupted", "processed", e.Counts.Processed, "total", e.Counts.Total)
	case EventOutput:
	}
}

// Close implements Reporter.
func (l *LogReporter) Close() {}
