// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package scheduler

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/matt-FFFFFF/simbatch/internal/collector"
	"github.com/matt-FFFFFF/simbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/simbatch/internal/procregistry"
	"github.com/matt-FFFFFF/simbatch/internal/progress"
	"github.com/matt-FFFFFF/simbatch/internal/runner"
	"github.com/matt-FFFFFF/simbatch/internal/task"
)

const (
	// DefaultGracePeriod is the pause after an interrupt during which a second
	// interrupt can still terminate the program.
	DefaultGracePeriod = time.Second
	// DefaultLoopInterval is the longest the dispatch loop sleeps between checks.
	DefaultLoopInterval = 10 * time.Millisecond
	// DefaultLogFilePrefix starts every log file name.
	DefaultLogFilePrefix = "simbatch_"
)

// ProcessRunner runs one simulator process. *runner.Runner implements it.
type ProcessRunner interface {
	Run(ctx context.Context, inv runner.Invocation) runner.Outcome
}

var _ ProcessRunner = (*runner.Runner)(nil)

// Config controls a Scheduler.
type Config struct {
	// MaxConcurrency of 1 or less runs tasks one by one on the calling goroutine.
	MaxConcurrency int
	Collector      collector.Options
	// KeepLogFiles keeps the logs of successful tasks.
	KeepLogFiles  bool
	LogFilePrefix string
	// LicenseRetries is how often a run without a licence is retried before
	// the task is left for the next resume.
	LicenseRetries    int
	LicenseRetryDelay time.Duration
	GracePeriod       time.Duration
	LoopInterval      time.Duration
}

// DefaultConfig uses one worker per logical CPU.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency:    runtime.NumCPU(),
		LogFilePrefix:     DefaultLogFilePrefix,
		LicenseRetryDelay: 5 * time.Second,
		GracePeriod:       DefaultGracePeriod,
		LoopInterval:      DefaultLoopInterval,
	}
}

// Scheduler dispatches tasks to workers.
type Scheduler struct {
	cfg      Config
	runner   ProcessRunner
	registry *procregistry.Registry
	reporter progress.Reporter

	mu      sync.Mutex
	spawned int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithReporter sets the progress reporter. The default drops all events.
func WithReporter(r progress.Reporter) Option {
	return func(s *Scheduler) {
		s.reporter = r
	}
}

// WithRegistry shares a process registry with the caller.
func WithRegistry(reg *procregistry.Registry) Option {
	return func(s *Scheduler) {
		s.registry = reg
	}
}

// New returns a Scheduler that starts processes through r.
func New(cfg Config, r ProcessRunner, opts ...Option) *Scheduler {
	if cfg.LoopInterval <= 0 {
		cfg.LoopInterval = DefaultLoopInterval
	}

	if cfg.GracePeriod < 0 {
		cfg.GracePeriod = 0
	}

	s := &Scheduler{
		cfg:      cfg,
		runner:   r,
		registry: procregistry.New(),
		reporter: progress.NullReporter{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Registry returns the registry of live processes.
func (s *Scheduler) Registry() *procregistry.Registry {
	return s.registry
}

// Interrupt stops the running batch: no new tasks start and every live process is killed.
func (s *Scheduler) Interrupt() {
	s.registry.StopAll()
}

// Spawned returns the number of processes started so far.
func (s *Scheduler) Spawned() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.spawned
}

func (s *Scheduler) countSpawn() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.spawned++
}

// Schedule runs tasks and returns once all of them finished or the batch was
// interrupted. Tasks are updated in place.
func (s *Scheduler) Schedule(ctx context.Context, tasks []*task.Task) Report {
	start := time.Now()

	s.registry.Reset()

	b := &batch{tasks: tasks, counts: progress.Counts{Total: len(tasks)}}

	ctxlog.Debug(ctx, "scheduling batch", "tasks", len(tasks), "max_concurrency", s.cfg.MaxConcurrency)

	if s.cfg.MaxConcurrency <= 1 || len(tasks) <= 1 {
		s.runSerial(ctx, b)
	} else {
		s.runParallel(ctx, b)
	}

	interrupted := s.stopRequested(ctx)
	if interrupted {
		s.registry.StopAll()
		s.reporter.Report(progress.Event{Type: progress.EventInterrupted, Counts: b.counts, Timestamp: time.Now()})
		ctxlog.Warn(ctx, "batch interrupted", "processed", b.counts.Processed, "total", b.counts.Total)

		time.Sleep(s.cfg.GracePeriod)
	}

	cleanupLogFiles(ctx, tasks, s.cfg.KeepLogFiles)

	return newReport(time.Since(start), tasks, interrupted)
}

// batch is the state of one Schedule call. It is only touched by the dispatch goroutine.
type batch struct {
	tasks  []*task.Task
	counts progress.Counts
}

func (s *Scheduler) stopRequested(ctx context.Context) bool {
	return ctx.Err() != nil || s.registry.Stopping()
}

func (s *Scheduler) runSerial(ctx context.Context, b *batch) {
	for i, t := range b.tasks {
		if s.stopRequested(ctx) {
			return
		}

		if s.skipDone(b, t) {
			continue
		}

		s.reap(b, s.execute(ctx, i, t))
	}
}

func (s *Scheduler) runParallel(ctx context.Context, b *batch) {
	var pending deque.Deque[int]
	for i := range b.tasks {
		pending.PushBack(i)
	}

	completions := make(chan result, len(b.tasks))
	ticker := time.NewTicker(s.cfg.LoopInterval)

	defer ticker.Stop()

	active, stopping := 0, false
	done := ctx.Done()

	for pending.Len() > 0 || active > 0 {
		if !stopping && s.stopRequested(ctx) {
			stopping, done = true, nil
			s.registry.StopAll()
			pending.Clear()
		}

		for !stopping && active < s.cfg.MaxConcurrency && pending.Len() > 0 {
			i := pending.PopFront()
			t := b.tasks[i]

			if s.skipDone(b, t) {
				continue
			}

			t.Status = task.StatusRunning
			active++

			go func() {
				completions <- s.execute(ctx, i, t)
			}()
		}

		if active == 0 {
			continue
		}

		select {
		case res := <-completions:
			active--
			s.reap(b, res)

			for drained := false; !drained; {
				select {
				case res := <-completions:
					active--
					s.reap(b, res)
				default:
					drained = true
				}
			}
		case <-done:
		case <-ticker.C:
		}
	}
}

// skipDone short-circuits a task that already holds an error-free result.
func (s *Scheduler) skipDone(b *batch, t *task.Task) bool {
	if !t.Done() || t.HasError() {
		return false
	}

	if t.LogFile != "" {
		if _, err := os.Stat(t.LogFile); err != nil {
			t.LogFile = ""
		}
	}

	if !t.Status.Terminal() {
		t.Status = task.StatusDoneOK
	}

	b.counts.Processed++
	s.reporter.Report(progress.Event{
		Type:      progress.EventSkipped,
		TaskID:    t.ID,
		TaskName:  t.Name,
		Counts:    b.counts,
		Elapsed:   t.ProcessTime,
		Timestamp: time.Now(),
	})

	return true
}

// reap applies a worker result to its task and reports progress.
func (s *Scheduler) reap(b *batch, res result) {
	t := b.tasks[res.index]
	res.apply(t)

	if res.cancelled {
		return
	}

	b.counts.Processed++

	ev := progress.Event{
		Type:      progress.EventCompleted,
		TaskID:    t.ID,
		TaskName:  t.Name,
		Elapsed:   t.ProcessTime,
		Timestamp: time.Now(),
	}

	if t.HasError() {
		b.counts.Errored++
		ev.Type = progress.EventFailed
		ev.Message = t.Output.Errors[0]
	}

	ev.Counts = b.counts
	s.reporter.Report(ev)
}
