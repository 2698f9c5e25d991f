// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/matt-FFFFFF/simbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/simbatch/internal/lastline"
	"github.com/matt-FFFFFF/simbatch/internal/procregistry"
	"github.com/matt-FFFFFF/simbatch/internal/task"
)

const (
	// DefaultPollInterval is how often a running process is checked.
	DefaultPollInterval = 50 * time.Millisecond
	// DefaultNoWindowFlag stops the simulator from opening a window.
	DefaultNoWindowFlag = "/ni"
	// DefaultSupervisorKilledCode is the exit status of a run stopped by the supervisor.
	DefaultSupervisorKilledCode = 10
	// DefaultNoLicenseCode is the exit status when no licence was available.
	DefaultNoLicenseCode = -22

	// drainTimeout bounds how long output is read after the process exited.
	// Orphaned grandchildren can hold the pipe open indefinitely.
	drainTimeout = 2 * time.Second

	lastLineLength = 120
)

var (
	// ErrExecutableNotFound is returned by New when the simulator cannot be located.
	ErrExecutableNotFound = errors.New("simulator executable not found")
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when the output pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrWriteMacro is returned when the macro file could not be written.
	ErrWriteMacro = errors.New("could not write macro file")
)

// Config holds the settings shared by every run.
type Config struct {
	// Executable is a path, or a bare name looked up in PATH.
	Executable string
	// Env entries override the inherited environment.
	Env map[string]string
	// Timeout per run. Zero disables it.
	Timeout time.Duration
	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
	// NoWindowFlag is appended to the command line when not empty.
	NoWindowFlag string
	// KeepMacroFile leaves the macro file on disk after the run.
	KeepMacroFile bool
	// SupervisorKilledCode and NoLicenseCode are the sentinel exit statuses.
	SupervisorKilledCode int
	NoLicenseCode        int
}

// DefaultConfig returns a Config with the default sentinels, flag and poll interval.
func DefaultConfig(executable string) Config {
	return Config{
		Executable:           executable,
		Timeout:              time.Hour,
		PollInterval:         DefaultPollInterval,
		NoWindowFlag:         DefaultNoWindowFlag,
		SupervisorKilledCode: DefaultSupervisorKilledCode,
		NoLicenseCode:        DefaultNoLicenseCode,
	}
}

// Invocation is one run of one macro.
type Invocation struct {
	Macro   []string
	WorkDir string
	// MacroFile is created in WorkDir with a random name when empty.
	MacroFile string
	// Output receives process output followed by any diagnostic line.
	Output io.Writer
	// Registry, when set, tracks the process for stop-all.
	Registry *procregistry.Registry
	// OnLine is called with each complete output line.
	OnLine func(string)
}

// Outcome is the result of a run. Err is only set when the process could not be started.
type Outcome struct {
	ExitCode int
	Class    ExitClass
	Elapsed  time.Duration
	Err      error
}

// Runner starts simulator processes.
type Runner struct {
	cfg  Config
	path string
}

// New resolves the executable and returns a Runner.
func New(cfg Config) (*Runner, error) {
	path, err := ResolveExecutable(cfg.Executable)
	if err != nil {
		return nil, err
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	return &Runner{cfg: cfg, path: path}, nil
}

// ResolveExecutable returns the absolute path of an executable file.
// Names without a path separator are looked up in PATH.
func ResolveExecutable(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: no executable configured", ErrExecutableNotFound)
	}

	if !strings.ContainsRune(name, os.PathSeparator) && !strings.ContainsRune(name, '/') {
		p, err := exec.LookPath(name)
		if err != nil {
			return "", errors.Join(ErrExecutableNotFound, err)
		}

		name = p
	}

	fi, err := os.Stat(name)
	if err != nil {
		return "", errors.Join(ErrExecutableNotFound, err)
	}

	if fi.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrExecutableNotFound, name)
	}

	return filepath.Abs(name)
}

// Path returns the resolved executable.
func (r *Runner) Path() string {
	return r.path
}

// Run starts the simulator and blocks until it has exited.
func (r *Runner) Run(ctx context.Context, inv Invocation) Outcome {
	logger := ctxlog.Logger(ctx).With("runner", filepath.Base(r.path))

	out := lastline.New(inv.Output, inv.OnLine)
	defer out.Close() //nolint:errcheck

	macroFile, err := writeMacro(inv)
	if err != nil {
		return Outcome{ExitCode: -1, Class: ExitFailedToStart, Err: err}
	}

	if !r.cfg.KeepMacroFile {
		defer os.Remove(macroFile) //nolint:errcheck
	}

	rPipe, wPipe, err := os.Pipe()
	if err != nil {
		return Outcome{ExitCode: -1, Class: ExitFailedToStart, Err: errors.Join(ErrFailedToCreatePipe, err)}
	}
	defer rPipe.Close() //nolint:errcheck

	args := []string{filepath.Base(r.path), "--macro=" + macroFile}
	if r.cfg.NoWindowFlag != "" {
		args = append(args, r.cfg.NoWindowFlag)
	}

	logger.Debug("starting process", "args", args, "cwd", inv.WorkDir)

	start := time.Now()

	ps, err := os.StartProcess(r.path, args, &os.ProcAttr{
		Dir:   inv.WorkDir,
		Env:   mergeEnv(os.Environ(), r.cfg.Env),
		Files: []*os.File{nil, wPipe, wPipe},
	})

	_ = wPipe.Close()

	if err != nil {
		return Outcome{ExitCode: -1, Class: ExitFailedToStart, Err: errors.Join(ErrCouldNotStartProcess, err)}
	}

	if inv.Registry != nil {
		defer inv.Registry.Remove(ps.Pid)

		if err := inv.Registry.Add(ps.Pid, ps); err != nil {
			logger.Debug("process killed on registration", "pid", ps.Pid)
		}
	}

	copied := make(chan struct{})

	go func() {
		defer close(copied)

		_, _ = io.Copy(out, rPipe)
	}()

	exited := make(chan *os.ProcessState, 1)

	go func() {
		st, _ := ps.Wait()
		exited <- st
	}()

	sup := supervisor{
		ps:       ps,
		registry: inv.Registry,
		deadline: deadline(start, r.cfg.Timeout),
		interval: r.cfg.PollInterval,
	}
	final, psState := sup.run(ctx, exited)

	elapsed := time.Since(start)

	// The pid leaves the registry as soon as the process is gone, not after the drain.
	killed := false
	if inv.Registry != nil {
		killed = inv.Registry.WasKilled(ps.Pid)
		inv.Registry.Remove(ps.Pid)
	}

	select {
	case <-copied:
	case <-time.After(drainTimeout):
		logger.Debug("output still open after exit, closing pipe", "pid", ps.Pid)
		_ = rPipe.Close()
		<-copied
	}

	code := -1
	if psState != nil {
		code = psState.ExitCode()
	}

	if final == stateExited && killed {
		final = stateKilled
	}

	o := r.classify(final, code)
	o.Elapsed = elapsed

	if d := r.diagnostic(o); d != "" {
		_, _ = io.WriteString(out, d)
	}

	logger.Debug("process finished", "pid", ps.Pid, "exitCode", o.ExitCode, "class", o.Class.String(), "elapsed", elapsed,
		"lastLine", out.LastLine(lastLineLength))

	return o
}

func (r *Runner) classify(st state, code int) Outcome {
	switch {
	case st == stateTimedOut:
		// A timeout is a completed run; the diagnostic line marks it as failed.
		return Outcome{ExitCode: 0, Class: ExitTimeout}
	case st == stateKilled:
		return Outcome{ExitCode: r.cfg.SupervisorKilledCode, Class: ExitSupervisorKilled}
	case code == 0:
		return Outcome{ExitCode: 0, Class: ExitOK}
	case matchesCode(code, r.cfg.SupervisorKilledCode):
		return Outcome{ExitCode: r.cfg.SupervisorKilledCode, Class: ExitSupervisorKilled}
	case matchesCode(code, r.cfg.NoLicenseCode):
		return Outcome{ExitCode: r.cfg.NoLicenseCode, Class: ExitNoLicense}
	default:
		return Outcome{ExitCode: code, Class: ExitUnexpected}
	}
}

func (r *Runner) diagnostic(o Outcome) string {
	exe := filepath.Base(r.path)

	switch o.Class {
	case ExitTimeout:
		return fmt.Sprintf("\nERROR: simbatch : Timeout after %d sec.", int(math.Ceil(r.cfg.Timeout.Seconds())))
	case ExitSupervisorKilled:
		return fmt.Sprintf("\n%s was interrupted by simbatch", exe)
	case ExitNoLicense:
		return fmt.Sprintf("\nERROR: %s exited unexpectedly. Return code: %d : No license available.", exe, o.ExitCode)
	case ExitUnexpected:
		return fmt.Sprintf("\nERROR: simbatch : %s exited unexpectedly. Return code: %d", exe, o.ExitCode)
	default:
		return ""
	}
}

func writeMacro(inv Invocation) (string, error) {
	content := strings.Join((&task.Task{Macro: inv.Macro}).MacroWithExit(), "\n") + "\n"

	if inv.MacroFile != "" {
		if err := os.WriteFile(inv.MacroFile, []byte(content), 0o644); err != nil {
			return "", errors.Join(ErrWriteMacro, err)
		}

		return inv.MacroFile, nil
	}

	f, err := os.CreateTemp(inv.WorkDir, "macro_*.mcr")
	if err != nil {
		return "", errors.Join(ErrWriteMacro, err)
	}
	defer f.Close() //nolint:errcheck

	if _, err := f.WriteString(content); err != nil {
		return "", errors.Join(ErrWriteMacro, err)
	}

	return f.Name(), nil
}

// mergeEnv replaces or adds the override entries in base.
func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}

	env := slices.DeleteFunc(slices.Clone(base), func(kv string) bool {
		k, _, _ := strings.Cut(kv, "=")
		_, ok := overrides[k]

		return ok
	})

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	for _, k := range keys {
		env = append(env, k+"="+overrides[k])
	}

	return env
}
