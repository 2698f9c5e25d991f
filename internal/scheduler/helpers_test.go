// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package scheduler

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matt-FFFFFF/simbatch/internal/progress"
	"github.com/matt-FFFFFF/simbatch/internal/runner"
	"github.com/matt-FFFFFF/simbatch/internal/task"
)

// fakeRunner interprets the first macro line:
//
//	value N      prints Main.value = N;
//	fail         prints an error line and exits with 3
//	nolicense    exits with the licence sentinel
//	flaky        no licence on the first attempt, then like value 1
//	timeout      behaves like a run killed at its deadline
//	block        runs until stopped
//	panic        panics
//	sleep D      sleeps D then like value 1
type fakeRunner struct {
	spawns atomic.Int32
	pids   atomic.Int32
	flaky  sync.Map
}

type fakeProc struct {
	once sync.Once
	ch   chan struct{}
}

func (p *fakeProc) Kill() error {
	p.once.Do(func() { close(p.ch) })
	return nil
}

func (f *fakeRunner) Run(ctx context.Context, inv runner.Invocation) runner.Outcome {
	f.spawns.Add(1)

	proc := &fakeProc{ch: make(chan struct{})}
	pid := int(f.pids.Add(1))

	if inv.Registry != nil {
		defer inv.Registry.Remove(pid)

		_ = inv.Registry.Add(pid, proc)
	}

	out := inv.Output
	if out == nil {
		out = io.Discard
	}

	cmd, arg, _ := strings.Cut(inv.Macro[0], " ")
	fmt.Fprintf(out, "#### Macro command > %s\n", inv.Macro[0]) //nolint:errcheck

	switch cmd {
	case "value":
		fmt.Fprintf(out, "Main.value = %s;\n", arg) //nolint:errcheck
		return runner.Outcome{Class: runner.ExitOK}
	case "fail":
		fmt.Fprintln(out, "ERROR(OBJ1): model.any(1): something broke") //nolint:errcheck
		return runner.Outcome{ExitCode: 3, Class: runner.ExitUnexpected}
	case "nolicense":
		return runner.Outcome{ExitCode: runner.DefaultNoLicenseCode, Class: runner.ExitNoLicense}
	case "flaky":
		if _, seen := f.flaky.LoadOrStore(inv.WorkDir+inv.MacroFile, true); !seen {
			fmt.Fprintln(out, "ERROR: no licence") //nolint:errcheck
			return runner.Outcome{ExitCode: runner.DefaultNoLicenseCode, Class: runner.ExitNoLicense}
		}

		fmt.Fprintln(out, "Main.value = 1;") //nolint:errcheck

		return runner.Outcome{Class: runner.ExitOK}
	case "timeout":
		fmt.Fprint(out, "\nERROR: simbatch : Timeout after 1 sec.") //nolint:errcheck
		return runner.Outcome{Class: runner.ExitTimeout}
	case "block":
		select {
		case <-proc.ch:
		case <-ctx.Done():
		}

		return runner.Outcome{ExitCode: runner.DefaultSupervisorKilledCode, Class: runner.ExitSupervisorKilled}
	case "panic":
		panic("boom")
	case "sleep":
		d, _ := time.ParseDuration(arg)
		time.Sleep(d)
		fmt.Fprintln(out, "Main.value = 1;") //nolint:errcheck

		return runner.Outcome{Class: runner.ExitOK}
	}

	return runner.Outcome{Class: runner.ExitOK}
}

type recorder struct {
	mu     sync.Mutex
	events []progress.Event
	onDone func(progress.Event)
}

func (r *recorder) Report(e progress.Event) {
	if e.Type == progress.EventOutput {
		return
	}

	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()

	if r.onDone != nil && e.Type.Finished() {
		r.onDone(e)
	}
}

func (r *recorder) Close() {}

func (r *recorder) finished() []progress.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []progress.Event

	for _, e := range r.events {
		if e.Type.Finished() {
			out = append(out, e)
		}
	}

	return out
}

func testConfig(conc int) Config {
	return Config{
		MaxConcurrency: conc,
		LogFilePrefix:  "test_",
		LoopInterval:   time.Millisecond,
	}
}

func tasksFor(t interface{ Helper() }, dir string, macros ...string) []*task.Task {
	t.Helper()

	tasks := make([]*task.Task, len(macros))
	for i, m := range macros {
		tasks[i] = task.New(i, task.Folder{Path: dir}, []string{m})
	}

	return tasks
}
