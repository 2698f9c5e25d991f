// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run contains the command that processes a batch definition.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/simbatch/cmd/simbatch/cmdio"
	"github.com/matt-FFFFFF/simbatch/internal/batchcache"
	"github.com/matt-FFFFFF/simbatch/internal/config"
	"github.com/matt-FFFFFF/simbatch/internal/ctxlog"
	"github.com/matt-FFFFFF/simbatch/internal/procregistry"
	"github.com/matt-FFFFFF/simbatch/internal/progress"
	"github.com/matt-FFFFFF/simbatch/internal/resultstore"
	"github.com/matt-FFFFFF/simbatch/internal/runner"
	"github.com/matt-FFFFFF/simbatch/internal/scheduler"
	"github.com/matt-FFFFFF/simbatch/internal/signalbroker"
	"github.com/matt-FFFFFF/simbatch/internal/summary"
	"github.com/matt-FFFFFF/simbatch/internal/task"
	"github.com/matt-FFFFFF/simbatch/internal/tui"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	fileFlag        = "file"
	outFlag         = "out"
	resumeFlag      = "resume"
	appendFlag      = "append"
	parallelismFlag = "parallelism"
	timeoutFlag     = "timeout"
	tuiFlag         = "tui"
	keepLogsFlag    = "keep-logs"
	quietFlag       = "quiet"
	cliExitStr      = ""
)

var (
	// ErrGetConfigFile is returned when the batch definition cannot be fetched.
	ErrGetConfigFile = errors.New("failed to get batch definition")
	// ErrResumeWithoutOut is returned when --resume is given without a results file.
	ErrResumeWithoutOut = errors.New("--resume needs --out to name the results file")
	// ErrResumeAndAppend is returned when --resume and --append are combined.
	ErrResumeAndAppend = errors.New("--resume and --append cannot be combined")
)

// exit terminates the program when a second signal arrives.
var exit = os.Exit

// RunCmd is the command that runs a batch definition.
var RunCmd = newCommand()

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run every macro in every folder of a batch definition",
		Description: `Run the simulator for every macro in every folder of a batch definition.
The definition is YAML (.yaml, .yml) or HCL (.hcl). Print an example with "simbatch config".

Definition URLs use Hashicorp's go-getter syntax, which allows for fetching files from various sources.
See https://github.com/hashicorp/go-getter.

Results are written to the file given by --out. With --resume the tasks already completed
in that file are not run again.

Press Ctrl+C once to stop the batch and keep the partial results.
Press it again to terminate immediately.
`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     fileFlag,
				Aliases:  []string{"f"},
				Usage:    "Batch definition file or go-getter URL",
				Required: true,
				OnlyOnce: true,
			},
			&cli.StringFlag{
				Name:      outFlag,
				Aliases:   []string{"o"},
				Usage:     "Write the results to this file",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.BoolFlag{
				Name:     resumeFlag,
				Usage:    "Skip the tasks already completed in the results file",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     appendFlag,
				Usage:    "Add the results to those already in the results file",
				OnlyOnce: true,
			},
			&cli.IntFlag{
				Name:    parallelismFlag,
				Aliases: []string{"p"},
				Usage:   "Override max_concurrency of the definition",
			},
			&cli.DurationFlag{
				Name:    timeoutFlag,
				Aliases: []string{"t"},
				Usage:   "Override the per task timeout of the definition",
			},
			&cli.BoolFlag{
				Name:    tuiFlag,
				Aliases: []string{"interactive"},
				Usage:   "Run with interactive Terminal User Interface (TUI) showing real-time progress",
			},
			&cli.BoolFlag{
				Name:  keepLogsFlag,
				Usage: "Keep the log files of successful tasks",
			},
			&cli.BoolFlag{
				Name:    quietFlag,
				Aliases: []string{"q"},
				Usage:   "Log one line per task instead of drawing the progress bar",
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctx = ctxlog.With(ctx, "command", cmd.Name)

	stdout, stderr := cmdio.Writers(cmd)
	out := cmd.String(outFlag)

	switch {
	case cmd.Bool(resumeFlag) && out == "":
		return cli.Exit(ErrResumeWithoutOut.Error(), 1)
	case cmd.Bool(resumeFlag) && cmd.Bool(appendFlag):
		return cli.Exit(ErrResumeAndAppend.Error(), 1)
	}

	b, err := loadBatch(ctx, cmd)
	if err != nil {
		ctxlog.Error(ctx, "failed to load batch definition", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	rcfg, err := b.RunnerConfig()
	if err != nil {
		ctxlog.Error(ctx, "failed to configure simulator", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	r, err := runner.New(rcfg)
	if err != nil {
		ctxlog.Error(ctx, "failed to configure simulator", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	fs := config.FsFactory()
	cache := batchcache.New(fs)

	if cmd.Bool(resumeFlag) {
		if err := seed(ctx, fs, cache, out); err != nil {
			ctxlog.Error(ctx, "failed to read previous results", "file", out, "error", err)
			return cli.Exit(cliExitStr, 1)
		}
	}

	tasks, err := cache.Resolve(ctx, b.Request())
	if err != nil {
		ctxlog.Error(ctx, "failed to build batch", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	ctxlog.Info(ctx, "starting batch", "name", b.Name, "tasks", len(tasks), "simulator", r.Path())

	reg := procregistry.New()
	interrupt := func() {
		ctxlog.Debug(ctx, "interrupting batch", "pids", reg.Pids())
		reg.StopAll()
	}

	sigCh := signalbroker.New(ctx)
	defer signalbroker.Stop(sigCh)

	go signalbroker.Watch(ctx, sigCh, interrupt, func() {
		cancel()
		exit(1)
	})

	schedule := func(runCtx context.Context, rep progress.Reporter) scheduler.Report {
		s := scheduler.New(b.SchedulerConfig(), r, scheduler.WithRegistry(reg), scheduler.WithReporter(rep))
		return s.Schedule(runCtx, tasks)
	}

	var report scheduler.Report

	if cmd.Bool(tuiFlag) {
		logger, buf := ctxlog.NewForTUI()
		tuiCtx := ctxlog.New(ctx, logger)

		tr := tui.NewRunner(tuiCtx, b.Name, tasks, interrupt)

		report, err = tr.Run(tuiCtx, func(rep progress.Reporter) scheduler.Report {
			return schedule(tuiCtx, rep)
		})

		buf.WriteTo(stderr) //nolint:errcheck

		if err != nil {
			ctxlog.Error(ctx, "TUI execution error", "error", err)
		}
	} else {
		rep := reporterFor(ctx, stderr, cmd.Bool(quietFlag))
		report = schedule(ctx, rep)
		rep.Close()
	}

	cache.Update(report.Tasks)

	if out != "" {
		if err := resultstore.Save(fs, out, cache.Hash(), report.Tasks, cmd.Bool(appendFlag)); err != nil {
			ctxlog.Error(ctx, "failed to write results", "file", out, "error", err)
			return cli.Exit(cliExitStr, 1)
		}

		ctxlog.Info(ctx, "results written", "file", out)
	}

	if err := summary.WriteFinal(stdout, report.Elapsed, report.Tasks); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if !report.Succeeded() {
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

// loadBatch fetches, parses and validates the definition, then applies the flag overrides.
func loadBatch(ctx context.Context, cmd *cli.Command) (*config.Batch, error) {
	name, content, err := getURL(ctx, cmd.String(fileFlag))
	if err != nil {
		return nil, err
	}

	def, err := config.Parse(name, content)
	if err != nil {
		return nil, err
	}

	if cmd.IsSet(parallelismFlag) {
		def.MaxConcurrency = cmd.Int(parallelismFlag)
	}

	if cmd.IsSet(timeoutFlag) {
		def.Timeout = cmd.Duration(timeoutFlag).String()
	}

	if cmd.Bool(keepLogsFlag) {
		def.KeepLogFiles = true
	}

	return def.Validate()
}

// seed loads the previous batch from the results file. A missing file starts a new batch.
func seed(ctx context.Context, fs afero.Fs, cache *batchcache.Cache, path string) error {
	f, err := resultstore.Load(fs, path)

	switch {
	case errors.Is(err, os.ErrNotExist):
		ctxlog.Info(ctx, "no previous results, starting a new batch", "file", path)
		return nil
	case err != nil:
		return err
	}

	tasks, err := f.Tasks()
	if err != nil {
		return err
	}

	cache.Seed(f.BatchHash, tasks)

	ctxlog.Debug(ctx, "previous batch loaded", "tasks", len(tasks), "completed", countDone(tasks))

	return nil
}

func countDone(tasks []*task.Task) int {
	n := 0

	for _, t := range tasks {
		if t.Done() && !t.HasError() {
			n++
		}
	}

	return n
}

func reporterFor(ctx context.Context, stderr io.Writer, quiet bool) progress.Reporter {
	if quiet {
		return progress.NewLogReporter(ctx)
	}

	return progress.NewBarReporter(stderr)
}

// getURL retrieves the definition at url using Hashicorp's go-getter.
// It returns the base name of the file, which selects the parser, and its content.
func getURL(ctx context.Context, url string) (string, []byte, error) {
	if url == "" {
		return "", nil, ErrGetConfigFile
	}

	tmpDir, err := os.MkdirTemp("", "simbatch-getter-*")
	if err != nil {
		return "", nil, errors.Join(ErrGetConfigFile, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return "", nil, errors.Join(ErrGetConfigFile, err)
	}

	client := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     url,
		Dst:     filepath.Join(tmpDir, "g"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	var fileName string

	// Remote sources are fetched as a directory, the file is then read from it.
	// https://github.com/hashicorp/go-getter/issues/98
	if ok, err := getter.Detect(req, &getter.FileGetter{}); !ok || err != nil {
		if err != nil {
			return "", nil, errors.Join(ErrGetConfigFile, err)
		}

		var newURL string

		newURL, fileName = splitFileNameFromGetterURL(url)
		if newURL == "" || fileName == "" {
			return "", nil, fmt.Errorf("%w: invalid URL format: %s", ErrGetConfigFile, url)
		}

		req.Src = newURL
	}

	if fileName == "" {
		req.Src = filepath.Dir(url)
		fileName = filepath.Base(url)
	}

	res, err := client.Get(ctx, req)
	if err != nil {
		return "", nil, errors.Join(ErrGetConfigFile, err)
	}

	content, err := os.ReadFile(filepath.Join(res.Dst, fileName))
	if err != nil {
		return "", nil, errors.Join(ErrGetConfigFile, err)
	}

	return fileName, content, nil
}

const (
	goGetterPathSeparator = "//"
	goGetterRefSeparator  = "?"
	minimumGetterParts    = 3
)

// splitFileNameFromGetterURL splits a go-getter URL into the source directory and the file name.
// A ref query is kept on the directory URL.
func splitFileNameFromGetterURL(url string) (string, string) {
	var ref string

	parts := strings.Split(url, goGetterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	last := parts[len(parts)-1]

	if p, q, ok := strings.Cut(last, goGetterRefSeparator); ok {
		last, ref = p, q
	}

	if filepath.Clean(last) == filepath.Dir(last) {
		return "", ""
	}

	fileName := filepath.Base(last)

	if dir := filepath.Dir(last); dir == "." {
		parts = parts[:len(parts)-1]
	} else {
		parts[len(parts)-1] = dir
	}

	newURL := strings.Join(parts, goGetterPathSeparator)

	if ref != "" {
		newURL += goGetterRefSeparator + ref
	}

	return newURL, fileName
}
