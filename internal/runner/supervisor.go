// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runner

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/matt-FFFFFF/simbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/simbatch/internal/procregistry"
)

type state uint8

const (
	stateRunning state = iota
	stateExited
	stateTimedOut
	stateKilled
)

func (s state) String() string {
	switch s {
	case stateRunning:
		return "running"
	case stateExited:
		return "exited"
	case stateTimedOut:
		return "timed-out"
	case stateKilled:
		return "killed"
	default:
		return "unknown"
	}
}

func deadline(start time.Time, timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}

	return start.Add(timeout)
}

// supervisor polls one process until it has exited.
// The deadline is fixed at start and compared on every tick.
type supervisor struct {
	ps       *os.Process
	registry *procregistry.Registry
	deadline time.Time
	interval time.Duration
}

// run returns the final state and the process state delivered by Wait.
func (s supervisor) run(ctx context.Context, exited <-chan *os.ProcessState) (state, *os.ProcessState) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	st := stateRunning

	for {
		select {
		case ps := <-exited:
			if st == stateRunning {
				st = stateExited
			}

			return st, ps
		case now := <-ticker.C:
			if st != stateRunning {
				continue
			}

			if next := s.tick(ctx, now); next != stateRunning {
				ctxlog.Debug(ctx, "stopping process", "pid", s.ps.Pid, "reason", next.String())
				s.kill(ctx)
				st = next
			}
		}
	}
}

// tick decides whether a running process must be stopped.
func (s supervisor) tick(ctx context.Context, now time.Time) state {
	switch {
	case s.registry != nil && s.registry.Stopping():
		return stateKilled
	case ctx.Err() != nil:
		return stateKilled
	case !s.deadline.IsZero() && now.After(s.deadline):
		return stateTimedOut
	default:
		return stateRunning
	}
}

func (s supervisor) kill(ctx context.Context) {
	if err := s.ps.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		ctxlog.Error(ctx, "process kill error", "pid", s.ps.Pid, "error", err)
	}
}
